package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/TobiSchelling/researchlens/internal/database"
	"github.com/TobiSchelling/researchlens/internal/export"
	"github.com/TobiSchelling/researchlens/internal/research"
)

var (
	listUser   string
	listMode   string
	listFolder string
	listLimit  int
)

func userFlag() string {
	if listUser != "" {
		return listUser
	}
	return cfg.History.UserID
}

func parseIDArg(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid ID: %s", s)
	}
	return id, nil
}

// --- history command ---

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Browse recorded searches",
}

var historyListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded searches, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		mode := ""
		if listMode != "" {
			m, err := research.ParseMode(listMode)
			if err != nil {
				return err
			}
			mode = string(m)
		}

		records, err := db.ListHistory(cmd.Context(), database.HistoryFilter{
			UserID: userFlag(),
			Mode:   mode,
			Limit:  listLimit,
		})
		if err != nil {
			return err
		}
		if len(records) == 0 {
			fmt.Println("No searches recorded. Run one with: researchlens search <query>")
			return nil
		}
		for _, r := range records {
			fmt.Printf("  [%d] %-9s %s\n", r.ID, r.SearchMode, r.Query)
			fmt.Printf("        %s, %d source(s)\n", r.CreatedAt, len(r.Sources))
		}
		return nil
	},
}

var historyDeleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a recorded search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		if err := db.DeleteHistory(cmd.Context(), id); err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("search %d not found", id)
			}
			return err
		}
		fmt.Printf("Deleted search [%d]\n", id)
		return nil
	},
}

func init() {
	historyListCmd.Flags().StringVar(&listUser, "user", "", "User ID (default from config)")
	historyListCmd.Flags().StringVar(&listMode, "mode", "", "Only list searches in this mode")
	historyListCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of searches")

	historyCmd.AddCommand(historyListCmd)
	historyCmd.AddCommand(historyDeleteCmd)
}

// --- saved command ---

var savedCmd = &cobra.Command{
	Use:   "saved",
	Short: "Browse saved research",
}

var savedListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved research, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		entries, err := db.ListSaved(cmd.Context(), database.SavedFilter{
			UserID: userFlag(),
			Folder: listFolder,
			Limit:  listLimit,
		})
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No saved research.")
			return nil
		}
		for _, e := range entries {
			fmt.Printf("  [%d] %s / %s\n", e.ID, e.Folder, e.Title)
			fmt.Printf("        search [%d] %q (%s)\n", e.SearchID, e.Query, e.SearchMode)
			if notes := strings.TrimSpace(e.Notes); notes != "" {
				if len(notes) > 60 {
					notes = notes[:60] + "..."
				}
				fmt.Printf("        %s\n", notes)
			}
		}
		return nil
	},
}

func init() {
	savedListCmd.Flags().StringVar(&listUser, "user", "", "User ID (default from config)")
	savedListCmd.Flags().StringVar(&listFolder, "folder", "", "Only list items in this folder")
	savedListCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "Maximum number of items")

	savedCmd.AddCommand(savedListCmd)
}

// --- folders command ---

var foldersCmd = &cobra.Command{
	Use:   "folders",
	Short: "Manage research folders",
}

var foldersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List folders",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		folders, err := db.ListFolders(cmd.Context(), userFlag())
		if err != nil {
			return err
		}
		if len(folders) == 0 {
			fmt.Println("No folders defined. Add one with: researchlens folders add <name>")
			return nil
		}
		for _, f := range folders {
			fmt.Printf("  [%d] %s\n", f.ID, f.FolderName)
		}
		return nil
	},
}

var foldersAddCmd = &cobra.Command{
	Use:   "add [name]",
	Short: "Add a folder",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		f, err := db.CreateFolder(cmd.Context(), userFlag(), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("Added folder [%d]: %s\n", f.ID, f.FolderName)
		return nil
	},
}

func init() {
	foldersListCmd.Flags().StringVar(&listUser, "user", "", "User ID (default from config)")
	foldersAddCmd.Flags().StringVar(&listUser, "user", "", "User ID (default from config)")

	foldersCmd.AddCommand(foldersListCmd)
	foldersCmd.AddCommand(foldersAddCmd)
}

// --- export command ---

var (
	exportFormat string
	exportOutput string
)

var exportCmd = &cobra.Command{
	Use:   "export [history-id]",
	Short: "Export a recorded search as Markdown or HTML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseIDArg(args[0])
		if err != nil {
			return err
		}
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		db, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer db.Close()

		rec, err := db.GetHistory(cmd.Context(), id)
		if err != nil {
			if errors.Is(err, database.ErrNotFound) {
				return fmt.Errorf("search %d not found", id)
			}
			return err
		}
		body, err := export.Render(rec, format)
		if err != nil {
			return err
		}

		if exportOutput == "" || exportOutput == "-" {
			fmt.Print(body)
			return nil
		}
		if err := os.WriteFile(exportOutput, []byte(body), 0o644); err != nil {
			return fmt.Errorf("writing export: %w", err)
		}
		fmt.Printf("Exported search [%d] to %s\n", id, exportOutput)
		return nil
	},
}

func init() {
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", "markdown", "Output format: markdown or html")
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Write to file instead of stdout")
}
