package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/agent"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/config"
	"github.com/pongsapatmainmail-lang/MuangThaiEcommerce/internal/profile"
	"go.uber.org/fx"
)

func main() {
	profileFlag := flag.String("profile", "", "profile name (overrides config default)")
	flag.Parse()

	profileName := profile.Resolve(*profileFlag)
	if err := profile.ValidateName(profileName); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(profile.ConfigPath())
	if err != nil {
		cfg = &config.Config{}
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = config.DefaultAPIBaseURL
	}

	app := fx.New(
		agent.Module(agent.Params{ProfileName: profileName, Config: cfg}),
	)

	app.Run()
}
