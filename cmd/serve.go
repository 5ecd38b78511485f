package cmd

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jackmaun/x360carve/carvers"
)

var serveAddr string
var serveOut string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run x360carve in server mode for remote carving",
	Long:  `Run x360carve in server mode so analysis boxes holding the dumps can be driven remotely. Not intended to be exposed beyond a lab network.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("[*] Starting x360carve server on %s...\n", serveAddr)
		http.HandleFunc("/carve", handleCarveRequest)
		if err := http.ListenAndServe(serveAddr, nil); err != nil {
			fmt.Println("[-] Server failed:", err)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveOut, "out", "/tmp/x360carve", "Output root for server-side carves")
	AddCommand(serveCmd)
}

func handleCarveRequest(w http.ResponseWriter, r *http.Request) {
	dumpPath := r.URL.Query().Get("path")
	if dumpPath == "" {
		http.Error(w, "missing path parameter", http.StatusBadRequest)
		return
	}

	src, closeSrc, err := openSource(dumpPath)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	defer closeSrc()

	dumpName := filepath.Base(dumpPath)
	carver, err := carvers.New(carvers.Options{
		OutputRoot: filepath.Join(serveOut, dumpName),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	manifest, err := carver.Carve(r.Context(), src, dumpName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(manifest.Summary)
}
