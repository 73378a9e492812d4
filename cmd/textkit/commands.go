package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RIGishan/text-toolkit/internal/auth"
	"github.com/RIGishan/text-toolkit/internal/logging"
	"github.com/RIGishan/text-toolkit/internal/repository"
	"github.com/RIGishan/text-toolkit/internal/services"
	"github.com/RIGishan/text-toolkit/internal/transform"
	"github.com/RIGishan/text-toolkit/internal/workflow"
	"github.com/RIGishan/text-toolkit/pkg/models"
)

const defaultStorePath = "data/textkit.json"

type cli struct {
	storePath string
	origin    string
	verbose   bool
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "textkit",
		Short:         "Run text transforms and saved workflows from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.storePath, "store", defaultStorePath, "Path of the file store holding saved workflows")
	root.PersistentFlags().StringVar(&c.origin, "origin", auth.DevOrigin, "Origin whose workflows are used")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "Log to stderr")

	root.AddCommand(c.transformsCmd(), c.applyCmd(), c.runCmd(), c.workflowsCmd())
	return root
}

func (c *cli) logger() *logging.Logger {
	if !c.verbose {
		return logging.NewNop()
	}
	l, err := logging.New("debug", true)
	if err != nil {
		return logging.NewNop()
	}
	return l
}

// workspace opens the file store and returns the origin's workspace. The
// returned function releases both.
func (c *cli) workspace() (*services.Workspace, func(), error) {
	logger := c.logger()
	kv, err := repository.OpenFileKVStore(c.storePath, logger)
	if err != nil {
		return nil, nil, err
	}
	w := services.NewWorkspace(c.origin, repository.Namespace(kv, c.origin), transform.Builtin(), logger)
	return w, func() {
		w.Close()
		kv.Close()
	}, nil
}

func (c *cli) pipeline() (*services.PipelineService, error) {
	return services.NewPipelineService(transform.Builtin(), c.logger())
}

func (c *cli) transformsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "transforms",
		Short: "List the available transforms",
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := transform.Builtin()
			defs := reg.List()
			out := cmd.OutOrStdout()
			if asJSON {
				type info struct {
					ID       transform.ID      `json:"id"`
					Name     string            `json:"name"`
					Fields   []transform.Field `json:"fields"`
					Defaults map[string]any    `json:"defaults"`
				}
				items := make([]info, len(defs))
				for i, d := range defs {
					defaults, err := reg.DefaultOptionsFor(d.ID)
					if err != nil {
						return err
					}
					items[i] = info{ID: d.ID, Name: d.Name, Fields: d.Fields, Defaults: defaults}
				}
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tOPTIONS")
			for _, d := range defs {
				keys := make([]string, len(d.Fields))
				for i, f := range d.Fields {
					keys[i] = f.Key
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", d.ID, d.Name, strings.Join(keys, ","))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the catalog as JSON")
	return cmd
}

func (c *cli) applyCmd() *cobra.Command {
	var opts []string
	cmd := &cobra.Command{
		Use:   "apply <transform-id>",
		Short: "Apply one transform to stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			options, err := parseOptions(opts)
			if err != nil {
				return err
			}
			input, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			p, err := c.pipeline()
			if err != nil {
				return err
			}
			out, err := p.Apply(cmd.Context(), transform.ID(args[0]), string(input), options)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringArrayVarP(&opts, "opt", "o", nil, "Option as key=value; repeatable")
	return cmd
}

func (c *cli) runCmd() *cobra.Command {
	var file, id, name string
	var trace bool
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a workflow file or a saved workflow on stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			steps, err := c.resolveSteps(cmd, file, id, name)
			if err != nil {
				return err
			}
			input, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return err
			}
			p, err := c.pipeline()
			if err != nil {
				return err
			}
			results, out, err := p.Trace(cmd.Context(), string(input), steps)
			if trace {
				for _, r := range results {
					line := fmt.Sprintf("step %d %s: %s", r.Index+1, r.TransformID, r.Status)
					if r.Error != "" {
						line += " (" + r.Error + ")"
					}
					fmt.Fprintln(cmd.ErrOrStderr(), line)
				}
			}
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), out)
			return err
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "Workflow YAML file")
	cmd.Flags().StringVar(&id, "id", "", "Id of a saved workflow")
	cmd.Flags().StringVar(&name, "name", "", "Name of a saved workflow")
	cmd.Flags().BoolVar(&trace, "trace", false, "Report each step on stderr")
	cmd.MarkFlagsMutuallyExclusive("file", "id", "name")
	cmd.MarkFlagsOneRequired("file", "id", "name")
	return cmd
}

func (c *cli) resolveSteps(cmd *cobra.Command, file, id, name string) ([]models.WorkflowStep, error) {
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		w, err := workflow.ImportYAML(data)
		if err != nil {
			return nil, err
		}
		return w.Steps, nil
	}

	ws, release, err := c.workspace()
	if err != nil {
		return nil, err
	}
	defer release()
	if id != "" {
		w, err := ws.Workflows.Load(cmd.Context(), id)
		return w.Steps, err
	}
	w, found, err := ws.Workflows.FindByName(cmd.Context(), name)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: no workflow named %q", workflow.ErrNotFound, name)
	}
	return w.Steps, nil
}

func (c *cli) workflowsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "workflows",
		Short: "Manage saved workflows",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List saved workflows, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, release, err := c.workspace()
			if err != nil {
				return err
			}
			defer release()
			items, err := ws.Workflows.List(cmd.Context())
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tNAME\tSTEPS")
			for _, w := range items {
				fmt.Fprintf(tw, "%s\t%s\t%d\n", w.ID, w.Name, len(w.Steps))
			}
			return tw.Flush()
		},
	}

	export := &cobra.Command{
		Use:   "export <id>",
		Short: "Write a saved workflow as YAML to stdout",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, release, err := c.workspace()
			if err != nil {
				return err
			}
			defer release()
			w, err := ws.Workflows.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			data, err := workflow.ExportYAML(w)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	imp := &cobra.Command{
		Use:   "import <file>",
		Short: "Save a workflow YAML file under a new id",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			parsed, err := workflow.ImportYAML(data)
			if err != nil {
				return err
			}
			ws, release, err := c.workspace()
			if err != nil {
				return err
			}
			defer release()
			w, err := ws.Workflows.Import(cmd.Context(), parsed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %q as %s\n", w.Name, w.ID)
			return nil
		},
	}

	cmd.AddCommand(list, export, imp)
	return cmd
}

// parseOptions turns key=value pairs into an options map. true and false
// become booleans and numbers become float64; anything else stays a string.
func parseOptions(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		key, raw, ok := strings.Cut(p, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("option %q: want key=value", p)
		}
		switch {
		case raw == "true" || raw == "false":
			out[key] = raw == "true"
		default:
			if n, err := strconv.ParseFloat(raw, 64); err == nil {
				out[key] = n
			} else {
				out[key] = raw
			}
		}
	}
	return out, nil
}
