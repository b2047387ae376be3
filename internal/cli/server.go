// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/vishalm/LlamaBot/internal/model"
)

func newAgentsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "agents",
		Short: "List the agents the server offers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			agents, err := a.client.ListAgents(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, agents)
			}
			printAgents(out, agents, a.cfg.Chat.DefaultAgent)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func printAgents(out io.Writer, agents []string, selected string) {
	if len(agents) == 0 {
		fmt.Fprintln(out, DimStyle.Render("The server offers no agents."))
		return
	}
	for _, name := range agents {
		label := fmt.Sprintf("%s  %s", name, DimStyle.Render(model.HumanizeName(name)))
		if name == selected {
			fmt.Fprintln(out, ActiveStyle.Render("* ")+label)
			continue
		}
		fmt.Fprintln(out, "  "+label)
	}
}

func newModelsCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "models",
		Short: "List the models behind the server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := a.client.ListModels(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return printJSON(out, list)
			}
			fmt.Fprintln(out, RenderLabel("Provider")+ValueStyle.Render(list.Provider))
			if list.BaseURL != "" {
				fmt.Fprintln(out, RenderLabel("URL")+ValueStyle.Render(list.BaseURL))
			}
			fmt.Fprintln(out)
			for _, m := range list.Models {
				if m == list.Current {
					fmt.Fprintln(out, ActiveStyle.Render("* "+m))
					continue
				}
				fmt.Fprintln(out, "  "+m)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}

func newStatusCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check the server's health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			start := time.Now()
			health, err := a.client.Health(cmd.Context())
			latency := time.Since(start)
			if err != nil {
				return errors.Wrapf(err, "server at %s is unreachable", a.client.BaseURL())
			}

			out := cmd.OutOrStdout()
			if asJSON {
				if err := printJSON(out, health); err != nil {
					return err
				}
			} else {
				fmt.Fprintln(out, TitleStyle.Render("llamabot server status"))
				fmt.Fprintln(out, RenderSeparator(40))
				fmt.Fprintln(out, RenderLabel("Server")+ValueStyle.Render(a.client.BaseURL()))
				fmt.Fprintln(out, RenderLabel("Status")+RenderStatus(health.Status))
				fmt.Fprintln(out, RenderLabel("Latency")+ValueStyle.Render(latency.Round(time.Millisecond).String()))
				if health.OllamaModel != "" {
					fmt.Fprintln(out, RenderLabel("Model")+ValueStyle.Render(health.OllamaModel))
				}
				if health.OllamaURL != "" {
					fmt.Fprintln(out, RenderLabel("Model URL")+ValueStyle.Render(health.OllamaURL))
				}
				if health.Error != "" {
					fmt.Fprintln(out, RenderLabel("Error")+ErrorStyle.Render(health.Error))
				}
			}

			if !health.Healthy() {
				return errors.Errorf("server reports %s", health.Status)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output JSON")
	return cmd
}
