package main

import (
	"log"
	"os"

	"github.com/crowelm/crowelm/cmd/api"
	"github.com/crowelm/crowelm/cmd/molecule"
	"github.com/crowelm/crowelm/cmd/offline"
	"github.com/crowelm/crowelm/internal/config"
	"github.com/crowelm/crowelm/pkg/middleware/logger"
	"github.com/crowelm/crowelm/pkg/utils"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// @title			CroweLM Gateway API
// @version		1.0
// @description	Offline-first gateway for the CroweLM research API and molecule viewer.
// @BasePath		/api
func main() {
	rootCtx := utils.SetupSignalContext()
	root := &cobra.Command{
		SilenceUsage:      true,
		Short:             "crowelm",
		Long:              "CroweLM gateway: offline-first research API cache and molecule viewer backend",
		PersistentPreRunE: initGlobalResource,
		Run: func(cmd *cobra.Command, _ []string) {
			_ = cmd.Help()
		},
		PersistentPostRunE: cleanGlobalResource,
	}
	root.SetContext(rootCtx)
	root.AddCommand(api.NewWeb())
	root.AddCommand(api.NewMigrate())
	root.AddCommand(molecule.New())
	root.AddCommand(offline.New())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func initGlobalResource(_ *cobra.Command, _ []string) error {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found - using environment variables")
	}

	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.AutomaticEnv()

	conf := config.Global()
	if err := v.Unmarshal(conf); err != nil {
		log.Fatal(err)
	}

	logger.Init(&logger.LogConfig{
		Path:     conf.Log.LogPath,
		LogLevel: conf.Log.LogLevel,
		ServiceEnv: logger.ServiceEnv{
			Platform: conf.Server.Platform,
			Service:  conf.Server.Service,
			Env:      conf.Server.Env,
		},
	})

	return nil
}

func cleanGlobalResource(_ *cobra.Command, _ []string) error {
	logger.Close()
	return nil
}
