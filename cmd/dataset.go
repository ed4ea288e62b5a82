package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-attendance/internal/config"
	"github.com/kozaktomas/face-attendance/internal/encoding"
	"github.com/kozaktomas/face-attendance/internal/extractor"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Build and manage face datasets",
	Long: `Manage datasets of known faces. A dataset is built from a directory
of labeled images (Alice_1.jpg, Alice_2.jpg, Bob_1.jpg ...) and holds
one averaged embedding per person.`,
}

var datasetBuildCmd = &cobra.Command{
	Use:   "build <source-dir>",
	Short: "Build a dataset from a directory of labeled images",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetBuild,
}

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored datasets",
	RunE:  runDatasetList,
}

var datasetInfoCmd = &cobra.Command{
	Use:   "info <name>",
	Short: "Show dataset metadata and roster",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetInfo,
}

var datasetDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete a dataset",
	Args:  cobra.ExactArgs(1),
	RunE:  runDatasetDelete,
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetBuildCmd)
	datasetCmd.AddCommand(datasetListCmd)
	datasetCmd.AddCommand(datasetInfoCmd)
	datasetCmd.AddCommand(datasetDeleteCmd)

	datasetBuildCmd.Flags().String("name", "", "Dataset name (defaults to the source directory name)")
	datasetBuildCmd.Flags().String("description", "", "Dataset description")

	datasetDeleteCmd.Flags().Bool("yes", false, "Skip confirmation prompt")
}

func confirmAction(prompt string) bool {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	response, _ := reader.ReadString('\n')
	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}

func countImages(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".jpg", ".jpeg", ".png":
			count++
		}
	}
	return count, nil
}

func runDatasetBuild(cmd *cobra.Command, args []string) error {
	sourceDir := args[0]
	cfg := config.Load()

	name := mustGetString(cmd, "name")
	if name == "" {
		name = filepath.Base(filepath.Clean(sourceDir))
	}

	store, _, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	total, err := countImages(sourceDir)
	if err != nil {
		return fmt.Errorf("failed to read source directory: %w", err)
	}
	if total == 0 {
		return fmt.Errorf("no images found in %s", sourceDir)
	}

	bar := progressbar.NewOptions(total,
		progressbar.OptionSetDescription("Extracting faces"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("images"),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetPredictTime(true),
		progressbar.OptionFullWidth(),
	)

	builder := encoding.NewBuilder(extractor.NewClient(cfg.Extractor.URL))
	ds, report, err := builder.Build(cmd.Context(), sourceDir, encoding.BuildOptions{
		Name:        name,
		Description: mustGetString(cmd, "description"),
		Progress:    func(string) { bar.Add(1) },
	})
	if err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	fmt.Println()

	if err := store.Save(cmd.Context(), ds); err != nil {
		return fmt.Errorf("failed to save dataset: %w", err)
	}

	fmt.Printf("Dataset %q saved: %d students from %d images (%d without a detectable face)\n",
		name, ds.Info.StudentCount, report.Processed, report.Skipped)
	for _, failure := range report.Failures {
		fmt.Printf("  warning: %s\n", failure)
	}
	return nil
}

func runDatasetList(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	store, _, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	infos, err := store.List(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to list datasets: %w", err)
	}
	if len(infos) == 0 {
		fmt.Println("No datasets found.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tSTUDENTS\tIMAGES\tCREATED\tDESCRIPTION")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n",
			info.Name, info.StudentCount, info.ImagesProcessed, info.CreatedAt, info.Description)
	}
	return w.Flush()
}

func runDatasetInfo(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	store, _, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	ds, err := store.Load(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	fmt.Printf("Name:        %s\n", ds.Info.Name)
	if ds.Info.Description != "" {
		fmt.Printf("Description: %s\n", ds.Info.Description)
	}
	fmt.Printf("Created:     %s\n", ds.Info.CreatedAt)
	fmt.Printf("Images:      %d\n", ds.Info.ImagesProcessed)
	fmt.Printf("Source:      %s\n", ds.Info.SourceDirectory)
	fmt.Printf("Students:    %d\n", len(ds.Gallery))
	for _, entry := range ds.Gallery {
		fmt.Printf("  - %s\n", entry.Label)
	}
	return nil
}

func runDatasetDelete(cmd *cobra.Command, args []string) error {
	name := args[0]
	cfg := config.Load()

	store, _, closeStores, err := openStores(cfg)
	if err != nil {
		return err
	}
	defer closeStores()

	if !mustGetBool(cmd, "yes") && !confirmAction(fmt.Sprintf("Delete dataset %q? [y/N]: ", name)) {
		fmt.Println("Aborted.")
		return nil
	}

	existed, err := store.Delete(cmd.Context(), name)
	if err != nil {
		return fmt.Errorf("failed to delete dataset: %w", err)
	}
	if !existed {
		fmt.Printf("Dataset %q does not exist.\n", name)
		return nil
	}
	fmt.Printf("Dataset %q deleted.\n", name)
	return nil
}
