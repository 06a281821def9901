package main

import (
	"context"
	"fmt"
	osexec "os/exec"

	"github.com/spf13/cobra"

	"github.com/joss/clibridge/internal/config"
	"github.com/joss/clibridge/internal/provider"
	"github.com/joss/clibridge/internal/render"
)

// binaryFor returns the configured executable of a provider id.
func binaryFor(env *config.BridgeEnv, id string) string {
	switch id {
	case provider.Claude:
		return env.ClaudeBin
	case provider.Codex:
		return env.CodexBin
	}
	return ""
}

func providerInfos(a *app) []render.ProviderInfo {
	ids := a.registry.Available()
	infos := make([]render.ProviderInfo, 0, len(ids))
	for i, id := range ids {
		adapter, _ := a.registry.Get(id)
		bin := binaryFor(a.env, id)
		_, err := osexec.LookPath(bin)
		infos = append(infos, render.ProviderInfo{
			ID:      id,
			Name:    adapter.Name(),
			Bin:     bin,
			Found:   err == nil,
			Effort:  adapter.SupportsReasoningEffort(),
			Default: i == 0,
		})
	}
	return infos
}

func providersCmd() *cobra.Command {
	return newCommand(CommandConfig{
		Use:   "providers",
		Short: "List configured providers",
		Args:  cobra.NoArgs,
		RunFunc: func(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
			fmt.Println(render.New(pretty).Providers(providerInfos(a)))
			return nil
		},
	})
}
