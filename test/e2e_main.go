package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/helix-tools/metadata-loader/api"
	"github.com/helix-tools/metadata-loader/loader"
	"github.com/helix-tools/metadata-loader/logging"
	"github.com/helix-tools/metadata-loader/metrics"
	"github.com/helix-tools/metadata-loader/source"
	"github.com/helix-tools/metadata-loader/types"
)

const (
	datasetsCSV = `db_id,name,description,Creation Date,Tissue/Tumor,Number_of_Samples
1,E2E_Breast_Cancer,End-to-end test dataset,2024-01-01,Breast,42
1,E2E_Breast_Cancer,End-to-end test dataset,2024-01-01,Lung,42
2,E2E_Glioblastoma,End-to-end test dataset,2024-02-01,Brain,17
`
	layersCSV = `Dataset Name,type,status,name,Number of samples,Platform,Version,preview,sage,awsebs,awss3,qcby
E2E Breast Cancer,E,raw,expression,42,hg-u133,1,preview.txt,,,e2e/breast/expression.txt,e2e
E2E Glioblastoma,C,curated,clinical,17,,1,preview.txt,,,e2e/gbm/clinical.txt,e2e
`
)

func main() {
	fmt.Println("================================================================================")
	fmt.Println("  METADATA LOADER END-TO-END TEST")
	fmt.Println("  CSV Load → Verify → Nuke")
	fmt.Println("================================================================================")
	fmt.Println("")

	ctx := context.Background()
	logging.Setup(os.Getenv("LOG_LEVEL"), "text")

	repoEndpoint := os.Getenv("LOADER_REPO_ENDPOINT")
	authEndpoint := os.Getenv("LOADER_AUTH_ENDPOINT")
	user := os.Getenv("LOADER_USER")
	password := os.Getenv("LOADER_PASSWORD")

	if repoEndpoint == "" || authEndpoint == "" || user == "" {
		fmt.Println("❌ LOADER_REPO_ENDPOINT, LOADER_AUTH_ENDPOINT and LOADER_USER must be set")
		os.Exit(1)
	}

	// Step 1: Authenticate
	fmt.Println("Step 1: Authenticate")
	fmt.Println("--------------------------------------------------------------------------------")
	client := api.NewClient(api.ClientConfig{RepoEndpoint: repoEndpoint, AuthEndpoint: authEndpoint})
	if err := client.Authenticate(ctx, user, password); err != nil {
		fmt.Printf("❌ Failed to authenticate: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Authenticated as %s\n\n", user)

	// Step 2: Write input files
	fmt.Println("Step 2: Create Test CSVs")
	fmt.Println("--------------------------------------------------------------------------------")
	dir, err := os.MkdirTemp("", "metadata-loader-e2e")
	if err != nil {
		fmt.Printf("❌ Failed to create temp dir: %v\n", err)
		os.Exit(1)
	}
	defer os.RemoveAll(dir)

	datasetsPath := filepath.Join(dir, "datasets.csv")
	layersPath := filepath.Join(dir, "layers.csv")
	for path, content := range map[string]string{datasetsPath: datasetsCSV, layersPath: layersCSV} {
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			fmt.Printf("❌ Failed to write %s: %v\n", path, err)
			os.Exit(1)
		}
	}
	fmt.Printf("✅ Test CSVs created in %s\n\n", dir)

	// Step 3: Load
	fmt.Println("Step 3: Load Metadata (fake local data)")
	fmt.Println("--------------------------------------------------------------------------------")
	runID := fmt.Sprintf("e2e-%d", time.Now().Unix())
	m := metrics.New()

	summary, err := loader.New(client, loader.Options{
		DatasetsCSV:   datasetsPath,
		LayersCSV:     layersPath,
		FakeLocalData: true,
		User:          user,
		Password:      password,
		Encoding:      loader.EncodingUTF8,
		Opener:        source.NewOpener(nil),
		Metrics:       m,
		Logger:        logging.ForRun(runID),
		RunID:         runID,
	}).Run(ctx)
	if err != nil {
		fmt.Printf("❌ Load failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✅ Load complete\n")
	fmt.Printf("   Project ID: %s\n", summary.ProjectID)
	fmt.Printf("   Datasets: %d, Layers: %d, Locations: %d, Previews: %d\n\n",
		summary.Datasets, summary.Layers, summary.Locations, summary.Previews)

	if summary.Datasets != 2 || summary.Layers != 2 || summary.Locations != 2 || summary.Previews != 2 {
		fmt.Println("❌ Unexpected entity counts")
		os.Exit(1)
	}

	// Step 4: Verify
	fmt.Println("Step 4: Verify Datasets")
	fmt.Println("--------------------------------------------------------------------------------")
	var list types.EntityList
	if err := client.GetEntity(ctx, types.DatasetURI, &list); err != nil {
		fmt.Printf("❌ Failed to list datasets: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("✅ Repository lists %d datasets\n", list.TotalNumberOfResults)
	for i, ds := range list.Results {
		if i < 3 {
			fmt.Printf("   Dataset: %v\n", ds["name"])
		}
	}
	fmt.Println("")

	// Step 5: Nuke
	fmt.Println("Step 5: Nuke Datasets")
	fmt.Println("--------------------------------------------------------------------------------")
	deleted, err := loader.Nuke(ctx, client, user, password, logging.ForRun(runID))
	if err != nil {
		fmt.Printf("❌ Nuke failed after %d deletions: %v\n", deleted, err)
		os.Exit(1)
	}
	fmt.Printf("✅ Deleted %d datasets\n\n", deleted)

	fmt.Println("================================================================================")
	fmt.Println("  ✅ METADATA LOADER END-TO-END TEST COMPLETE!")
	fmt.Println("================================================================================")
}
