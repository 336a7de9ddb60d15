package cmd

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"tunedrop/config"
	"tunedrop/storage"
)

var minioPrefix string

var minioCmd = &cobra.Command{
	Use:   "minio",
	Short: "Inspect the track storage bucket",
	Long:  `Lists objects in the configured MinIO bucket, optionally under a prefix such as "<artistId>/<submissionId>/".`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Load()
		store, err := storage.NewMinioStore(cfg)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "OBJECT\tSIZE\tMODIFIED")

		count := 0
		var total int64
		for obj := range store.List(context.Background(), minioPrefix, true) {
			if obj.Err != nil {
				return obj.Err
			}
			fmt.Fprintf(w, "%s\t%d\t%s\n", obj.Key, obj.Size, obj.LastModified.Format("2006-01-02 15:04:05"))
			count++
			total += obj.Size
		}
		w.Flush()

		fmt.Printf("\n%d objects, %d bytes\n", count, total)
		return nil
	},
}

func init() {
	minioCmd.Flags().StringVar(&minioPrefix, "prefix", "", "only list objects under this prefix")
	rootCmd.AddCommand(minioCmd)
}
