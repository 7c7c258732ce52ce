package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/socialvault/socialvault/internal/action"
	"github.com/socialvault/socialvault/internal/completion"
	"github.com/socialvault/socialvault/internal/config"
	"github.com/socialvault/socialvault/internal/pipeline"
	"github.com/socialvault/socialvault/internal/storage"
)

// clientFor builds an API client carrying the --user header of cmd.
func clientFor(cmd *cobra.Command) (*apiClient, error) {
	client, err := newAPIClient()
	if err != nil {
		return nil, err
	}
	if user, _ := cmd.Flags().GetString("user"); user != "" {
		client.userID = user
	}
	return client, nil
}

func teamPath(team, collection string) string {
	return "/teams/" + url.PathEscape(team) + "/" + collection
}

func addTeamFlag(cmd *cobra.Command) {
	cmd.Flags().String("team", "", "team id")
	cmd.MarkFlagRequired("team")
}

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", outputText, "output format: text, json or yaml")
}

// --- run ---

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <function> <action>",
		Short: "Run one generation action",
		Long: `Run one generation action and print the structured result.

Examples:
  socialvault run content-generator generate_hashtags --field content="Cà phê sữa đá"
  socialvault run analytics predict_performance --field platform=facebook --field teamId=t1 \
    --json postData='{"content":"New menu","likes":120}' --output yaml
  socialvault run visual-tools color_palette --field content="warm cafe brand" --local`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			fn, err := action.ParseFunction(args[0])
			if err != nil {
				return fmt.Errorf("%w (known: %s)", err, functionNames())
			}
			table, err := action.TableFor(fn)
			if err != nil {
				return err
			}
			name := action.Name(args[1])
			if !table.Has(name) {
				return fmt.Errorf("unknown action %q for %s (known: %s)", name, fn, actionNames(table))
			}

			fields, _ := cmd.Flags().GetStringArray("field")
			jsonFields, _ := cmd.Flags().GetStringArray("json")
			body, err := buildActionBody(name, fields, jsonFields)
			if err != nil {
				return err
			}

			local, _ := cmd.Flags().GetBool("local")
			var result map[string]any
			if local {
				result, err = runLocal(cmd.Context(), fn, body)
			} else {
				result, err = runRemote(cmd, fn, body)
			}
			if err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("output")
			return writeOutput(cmd.OutOrStdout(), format, result, func(w io.Writer) error {
				return writeFields(w, result)
			})
		},
	}
	cmd.Flags().StringArray("field", nil, "request field as key=value (repeatable)")
	cmd.Flags().StringArray("json", nil, "request field as key=<json value> (repeatable)")
	cmd.Flags().Bool("local", false, "call the completion provider directly instead of the server")
	addOutputFlag(cmd)
	return cmd
}

func functionNames() string {
	names := make([]string, len(action.Functions))
	for i, fn := range action.Functions {
		names[i] = string(fn)
	}
	return strings.Join(names, ", ")
}

func actionNames(t *action.Table) string {
	var names []string
	for _, n := range t.Actions() {
		names = append(names, string(n))
	}
	return strings.Join(names, ", ")
}

// buildActionBody assembles the request object. --field values are strings;
// --json values are decoded so numbers and objects keep their type.
func buildActionBody(name action.Name, fields, jsonFields []string) (map[string]any, error) {
	body := map[string]any{}
	for _, f := range fields {
		k, v, ok := strings.Cut(f, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --field %q, want key=value", f)
		}
		body[k] = v
	}
	for _, f := range jsonFields {
		k, raw, ok := strings.Cut(f, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid --json %q, want key=<json>", f)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("invalid --json value for %s: %w", k, err)
		}
		body[k] = v
	}
	body["action"] = string(name)
	return body, nil
}

func runRemote(cmd *cobra.Command, fn action.Function, body map[string]any) (map[string]any, error) {
	client, err := clientFor(cmd)
	if err != nil {
		return nil, err
	}
	resp, err := client.post(cmd.Context(), "/functions/"+string(fn), body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusInternalServerError {
		return nil, functionFailure(resp)
	}
	var result map[string]any
	if err := decodeJSON(resp, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// functionFailure reads the {error, content} envelope of a failed call and
// shows the fallback message the dashboard would display.
func functionFailure(resp *http.Response) error {
	defer resp.Body.Close()
	var env struct {
		Error   string `json:"error"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil || env.Error == "" {
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}
	if env.Content != "" {
		printWarning("%s", env.Content)
	}
	return errors.New(env.Error)
}

func runLocal(ctx context.Context, fn action.Function, body map[string]any) (map[string]any, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := newLogger(os.Stderr, cfg.Log)
	if err != nil {
		return nil, err
	}
	client, err := completion.New(completion.Config{
		Provider: cfg.Completion.Provider,
		BaseURL:  cfg.Completion.BaseURL,
		Model:    cfg.Completion.Model,
		APIKey:   cfg.Completion.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring completion provider: %w", err)
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	// Local runs are not persisted.
	runner := pipeline.NewRunner(client, nil, pipeline.WithLogger(logger))
	res, err := runner.Run(ctx, fn, raw)
	if err != nil {
		return nil, err
	}

	out, err := json.Marshal(res)
	if err != nil {
		return nil, err
	}
	var result map[string]any
	if err := json.Unmarshal(out, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// --- competitors ---

func newCompetitorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "competitors",
		Short: "Manage tracked competitors",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List a team's active competitors",
		RunE: func(cmd *cobra.Command, args []string) error {
			team, _ := cmd.Flags().GetString("team")
			client, err := clientFor(cmd)
			if err != nil {
				return err
			}
			resp, err := client.get(cmd.Context(), teamPath(team, "competitors"))
			if err != nil {
				return err
			}
			var items []storage.Competitor
			if err := decodeJSON(resp, &items); err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("output")
			return writeOutput(cmd.OutOrStdout(), format, items, func(w io.Writer) error {
				if len(items) == 0 {
					fmt.Fprintln(w, "No competitors found.")
					return nil
				}
				for _, c := range items {
					fmt.Fprintf(w, "%s  %-24s %-10s %s\n", colorize(colorCyan, shortID(c.ID)), c.Name, c.Platform, c.Handle)
				}
				return nil
			})
		},
	}
	addTeamFlag(list)
	addOutputFlag(list)

	add := &cobra.Command{
		Use:   "add",
		Short: "Add a competitor",
		RunE: func(cmd *cobra.Command, args []string) error {
			team, _ := cmd.Flags().GetString("team")
			body := map[string]any{"is_active": true}
			for _, f := range []struct{ flag, field string }{
				{"name", "name"},
				{"platform", "platform"},
				{"handle", "handle"},
				{"website", "website_url"},
				{"notes", "notes"},
			} {
				if v, _ := cmd.Flags().GetString(f.flag); v != "" {
					body[f.field] = v
				}
			}

			client, err := clientFor(cmd)
			if err != nil {
				return err
			}
			resp, err := client.post(cmd.Context(), teamPath(team, "competitors"), body)
			if err != nil {
				return err
			}
			var created storage.Competitor
			if err := decodeJSON(resp, &created); err != nil {
				return err
			}
			printSuccess("Added competitor %s (%s)", created.Name, created.ID)
			return nil
		},
	}
	addTeamFlag(add)
	add.Flags().String("name", "", "competitor name")
	add.Flags().String("platform", "", "platform, e.g. facebook or tiktok")
	add.Flags().String("handle", "", "account handle")
	add.Flags().String("website", "", "website URL")
	add.Flags().String("notes", "", "free-form notes")
	add.MarkFlagRequired("name")

	archive := &cobra.Command{
		Use:   "archive <id>",
		Short: "Stop tracking a competitor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteRecord(cmd, "competitors", args[0], "Archived competitor %s")
		},
	}

	cmd.AddCommand(list, add, archive)
	return cmd
}

func deleteRecord(cmd *cobra.Command, collection, id, msg string) error {
	client, err := clientFor(cmd)
	if err != nil {
		return err
	}
	resp, err := client.delete(cmd.Context(), "/"+collection+"/"+url.PathEscape(id))
	if err != nil {
		return err
	}
	var result map[string]string
	if err := decodeJSON(resp, &result); err != nil {
		return err
	}
	printSuccess(msg, id)
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

// --- insights ---

func newInsightsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "insights",
		Short: "Browse market insights",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List a team's market insights",
		RunE: func(cmd *cobra.Command, args []string) error {
			team, _ := cmd.Flags().GetString("team")
			client, err := clientFor(cmd)
			if err != nil {
				return err
			}
			resp, err := client.get(cmd.Context(), teamPath(team, "market-insights"))
			if err != nil {
				return err
			}
			var items []storage.MarketInsight
			if err := decodeJSON(resp, &items); err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("output")
			return writeOutput(cmd.OutOrStdout(), format, items, func(w io.Writer) error {
				if len(items) == 0 {
					fmt.Fprintln(w, "No market insights found.")
					return nil
				}
				for _, in := range items {
					fmt.Fprintf(w, "%s  %4.2f  %-12s %s\n",
						colorize(colorCyan, shortID(in.ID)), in.RelevanceScore, in.Category, in.Title)
					if in.Summary != "" {
						fmt.Fprintf(w, "      %s\n", truncate(in.Summary, 100))
					}
				}
				return nil
			})
		},
	}
	addTeamFlag(list)
	addOutputFlag(list)

	archive := &cobra.Command{
		Use:   "archive <id>",
		Short: "Archive a market insight",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return deleteRecord(cmd, "market-insights", args[0], "Archived insight %s")
		},
	}

	cmd.AddCommand(list, archive)
	return cmd
}

// --- reports ---

func newReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "Browse competitive reports",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List a team's competitive reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			team, _ := cmd.Flags().GetString("team")
			client, err := clientFor(cmd)
			if err != nil {
				return err
			}
			resp, err := client.get(cmd.Context(), teamPath(team, "reports"))
			if err != nil {
				return err
			}
			var items []storage.CompetitiveReport
			if err := decodeJSON(resp, &items); err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("output")
			return writeOutput(cmd.OutOrStdout(), format, items, func(w io.Writer) error {
				if len(items) == 0 {
					fmt.Fprintln(w, "No reports found.")
					return nil
				}
				for _, r := range items {
					fmt.Fprintf(w, "%s  %s  %-10s %s\n",
						colorize(colorCyan, shortID(r.ID)), r.CreatedAt.Format("2006-01-02"), r.ReportType, r.Title)
				}
				return nil
			})
		},
	}
	addTeamFlag(list)
	addOutputFlag(list)

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Render a report as HTML",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := clientFor(cmd)
			if err != nil {
				return err
			}
			resp, err := client.get(cmd.Context(), "/reports/"+url.PathEscape(args[0])+"/html")
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				return fmt.Errorf("server returned %d: %s", resp.StatusCode, string(body))
			}

			out, _ := cmd.Flags().GetString("out")
			if out == "" {
				_, err = io.Copy(cmd.OutOrStdout(), resp.Body)
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("creating output file: %w", err)
			}
			defer f.Close()
			if _, err := io.Copy(f, resp.Body); err != nil {
				return err
			}
			printSuccess("Report written to %s", out)
			return nil
		},
	}
	show.Flags().String("out", "", "write the HTML to a file instead of stdout")

	cmd.AddCommand(list, show)
	return cmd
}

// --- predictions ---

func newPredictionsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predictions",
		Short: "Browse stored performance predictions",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List a team's recent performance predictions",
		RunE: func(cmd *cobra.Command, args []string) error {
			team, _ := cmd.Flags().GetString("team")
			limit, _ := cmd.Flags().GetInt("limit")
			client, err := clientFor(cmd)
			if err != nil {
				return err
			}
			resp, err := client.get(cmd.Context(), fmt.Sprintf("%s?limit=%d", teamPath(team, "predictions"), limit))
			if err != nil {
				return err
			}
			var items []storage.PerformancePrediction
			if err := decodeJSON(resp, &items); err != nil {
				return err
			}

			format, _ := cmd.Flags().GetString("output")
			return writeOutput(cmd.OutOrStdout(), format, items, func(w io.Writer) error {
				fmt.Fprintf(w, "%s predictions\n", countLabel(len(items), limit))
				for _, p := range items {
					fmt.Fprintf(w, "%s  %-10s likes=%d shares=%d engagement=%.1f%%\n",
						p.CreatedAt.Format("2006-01-02 15:04"), p.Platform, p.PredictedLikes, p.PredictedShares, p.EngagementRate)
				}
				return nil
			})
		},
	}
	addTeamFlag(list)
	addOutputFlag(list)
	list.Flags().Int("limit", 20, "maximum number of predictions")

	cmd.AddCommand(list)
	return cmd
}

// --- import ---

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import competitor content from text, a file or a URL",
		Long: `Import competitor content from text, a file or a URL.

Examples:
  socialvault import --team t1 --competitor c1 --platform facebook --text "Khai trương chi nhánh mới"
  socialvault import --team t1 --competitor c1 --file ./campaign.pdf
  socialvault import --team t1 --competitor c1 --url https://example.com/blog/post`,
		RunE: func(cmd *cobra.Command, args []string) error {
			team, _ := cmd.Flags().GetString("team")
			competitor, _ := cmd.Flags().GetString("competitor")
			platform, _ := cmd.Flags().GetString("platform")
			text, _ := cmd.Flags().GetString("text")
			file, _ := cmd.Flags().GetString("file")
			link, _ := cmd.Flags().GetString("url")

			req := map[string]any{
				"competitor_id": competitor,
				"platform":      platform,
			}
			switch {
			case text != "":
				req["type"] = "text"
				req["content"] = text
			case file != "":
				data, err := os.ReadFile(file)
				if err != nil {
					return fmt.Errorf("reading file: %w", err)
				}
				req["type"] = "file"
				req["content"] = base64.StdEncoding.EncodeToString(data)
			case link != "":
				req["type"] = "url"
				req["url"] = link
			default:
				return fmt.Errorf("one of --text, --file or --url is required")
			}

			client, err := clientFor(cmd)
			if err != nil {
				return err
			}
			resp, err := client.post(cmd.Context(), teamPath(team, "competitor-content")+"/import", req)
			if err != nil {
				return err
			}
			var created storage.CompetitorContent
			if err := decodeJSON(resp, &created); err != nil {
				return err
			}
			printSuccess("Imported %d characters as %s", len([]rune(created.Content)), created.ID)
			return nil
		},
	}
	addTeamFlag(cmd)
	cmd.Flags().String("competitor", "", "competitor id the content belongs to")
	cmd.Flags().String("platform", "", "platform the content was posted on")
	cmd.Flags().String("text", "", "content text")
	cmd.Flags().String("file", "", "PDF or text file to import")
	cmd.Flags().String("url", "", "page to fetch and import")
	cmd.MarkFlagRequired("competitor")
	cmd.MarkFlagsMutuallyExclusive("text", "file", "url")
	return cmd
}

// --- config ---

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or update configuration",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			keys := config.ShowAll(cfg)

			format, _ := cmd.Flags().GetString("output")
			values := make(map[string]string, len(keys))
			for _, k := range keys {
				values[k.Key] = k.Value
			}
			return writeOutput(cmd.OutOrStdout(), format, values, func(w io.Writer) error {
				for _, k := range keys {
					fmt.Fprintf(w, "  %s = %s  %s\n", colorize(colorBold, k.Key), k.Value, colorize(colorCyan, "$"+k.EnvVar))
				}
				return nil
			})
		},
	}
	addOutputFlag(show)

	set := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  "Set a configuration value in the config file.\n\nValid keys: " + strings.Join(config.ValidKeys(), ", "),
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if err := config.SetKey(key, value); err != nil {
				return err
			}
			slog.Debug("config key written", "key", key, "path", config.ConfigFilePath())
			printSuccess("Set %s = %s", key, value)
			return nil
		},
	}

	cmd.AddCommand(show, set)
	return cmd
}
