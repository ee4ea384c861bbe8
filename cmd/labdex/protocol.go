package main

import (
	"fmt"

	"github.com/benchlab/labdex/internal/config"
	"github.com/benchlab/labdex/internal/protocol"
	"github.com/spf13/cobra"
)

var protocolFull bool

func init() {
	protocolCmd.Flags().BoolVar(&protocolFull, "full", false, "Print the full extracted protocol text")
	rootCmd.AddCommand(protocolCmd)
}

var protocolCmd = &cobra.Command{
	Use:   "protocol [project-id]",
	Short: "Show the protocol attached to a project",
	Long: `Show the protocol attached to a project. Without an argument,
lists every project that has a protocol.

Protocols are attached during import with --protocol.

Examples:
  labdex protocol
  labdex protocol P-17
  labdex protocol P-17 --full`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProtocol,
}

// ProtocolEntry is the JSON shape for a single protocol listing.
type ProtocolEntry struct {
	ProjectID string `json:"project_id"`
	Name      string `json:"name"`
	Digest    string `json:"digest"`
}

func runProtocol(cmd *cobra.Command, args []string) error {
	repoRoot := mustFindRepository()

	reg, err := protocol.LoadRegistry(config.ProtocolsPath(repoRoot))
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}

	// No args: list projects with protocols.
	if len(args) == 0 {
		entries := []ProtocolEntry{}
		for _, id := range reg.Projects() {
			att, _ := reg.Get(id)
			entries = append(entries, ProtocolEntry{ProjectID: id, Name: att.Name, Digest: att.Digest})
		}
		if humanOutput {
			if len(entries) == 0 {
				fmt.Println("No protocols attached.")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("  %-12s %s\n", e.ProjectID, e.Name)
			}
		} else {
			outputJSON(entries)
		}
		return nil
	}

	projectID := args[0]
	att, ok := reg.Get(projectID)
	if !ok {
		exitWithError(ExitDataError, "no protocol attached to project %s", projectID)
	}

	if humanOutput {
		fmt.Printf("Project: %s\n", projectID)
		fmt.Printf("Name:    %s\n", att.Name)
		fmt.Printf("Digest:  %s\n", att.Digest)
		if protocolFull {
			fmt.Println()
			fmt.Println(att.Text)
		}
	} else {
		if protocolFull {
			outputJSON(att)
		} else {
			outputJSON(ProtocolEntry{ProjectID: projectID, Name: att.Name, Digest: att.Digest})
		}
	}

	return nil
}
