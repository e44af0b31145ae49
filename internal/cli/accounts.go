package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/LeJamon/xrplbench/internal/registry"
	"github.com/LeJamon/xrplbench/internal/xrplclient"
)

var (
	accountName    string
	accountAddress string
	accountSeed    string
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage the workspace's signing accounts",
}

var accountsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List configured accounts",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		accounts := app.reg.Accounts()
		if len(accounts) == 0 {
			fmt.Println("No accounts configured.")
			return nil
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "NAME\tADDRESS\tSIGNING")
		for _, a := range accounts {
			signing := "no"
			if a.CanSign() {
				signing = "yes"
			}
			fmt.Fprintf(w, "%s\t%s\t%s\n", a.Name, a.Address, signing)
		}
		return w.Flush()
	},
}

var accountsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add an existing account",
	RunE: func(cmd *cobra.Command, args []string) error {
		if accountAddress == "" {
			return fmt.Errorf("--address is required")
		}
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		app.reg.AddAccount(registry.Account{
			Name:    accountName,
			Address: accountAddress,
			Seed:    accountSeed,
		})
		fmt.Printf("Added account %s\n", accountAddress)
		return nil
	},
}

var accountsGenCmd = &cobra.Command{
	Use:   "gen",
	Short: "Generate a fresh keypair and add it as an account",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := newApp()
		if err != nil {
			return err
		}
		defer app.close()

		signer, err := xrplclient.GenerateSigner()
		if err != nil {
			return fmt.Errorf("generating account: %w", err)
		}
		app.reg.AddAccount(registry.Account{
			Name:    accountName,
			Address: signer.Address,
			Seed:    signer.Seed,
		})
		fmt.Printf("Address: %s\nSeed:    %s\n", signer.Address, signer.Seed)
		fmt.Println("Fund this account before submitting against a live network.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(accountsCmd)
	accountsCmd.AddCommand(accountsLsCmd, accountsAddCmd, accountsGenCmd)

	accountsAddCmd.Flags().StringVar(&accountName, "name", "", "display name")
	accountsAddCmd.Flags().StringVar(&accountAddress, "address", "", "classic address")
	accountsAddCmd.Flags().StringVar(&accountSeed, "seed", "", "seed, required for signing accounts")
	accountsGenCmd.Flags().StringVar(&accountName, "name", "", "display name")
}
