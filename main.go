package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/jedib0t/go-pretty/text"
	"github.com/mrnavastar/modman-agent/api"
	"github.com/mrnavastar/modman-agent/config"
	"github.com/mrnavastar/modman-agent/logging"
	"github.com/mrnavastar/modman-agent/server"
	"github.com/mrnavastar/modman-agent/services"
	"github.com/mrnavastar/modman-agent/util"
	"github.com/mrnavastar/modman-agent/util/fileutils"
	"github.com/pterm/pterm"
	"github.com/tidwall/gjson"
	"github.com/urfave/cli/v2"
)

// set with -ldflags "-X main.version=..."
var version = "dev"

// loadConfig also sets up logging; the returned func closes the log file.
func loadConfig(c *cli.Context) (*config.Config, func()) {
	cfg, err := config.Load(c.String("config"))
	util.Fatal(err)

	verbosity := cfg.Log.Verbosity
	if c.IsSet("verbosity") {
		verbosity = c.Int("verbosity")
	}
	closeLog := logging.SetupLogger(logging.Options{Verbosity: verbosity, File: cfg.Log.File})
	return cfg, closeLog
}

func newInstaller(cfg *config.Config) *services.Installer {
	locator := services.NewLocator(
		services.DefaultBaseDir(cfg.Install.MinecraftDir, logging.GetLogger("locator")),
		logging.GetLogger("locator"),
	)
	fetcher := api.NewFetcher(api.NewClient(cfg.Install.FetchTimeout, logging.GetLogger("resty")), logging.GetLogger("fetcher"))
	return services.NewInstaller(locator, fetcher, cfg.Install.Concurrency, logging.GetLogger("installer"))
}

func loadIdentity() fileutils.Identity {
	identity, err := fileutils.LoadOrCreateIdentity(fileutils.IdentityPath())
	if err != nil {
		logger := logging.GetLogger("identity")
		logger.Warn().Err(err).Msg("Device identity could not be saved, it will change on restart")
	}
	return identity
}

func serve(c *cli.Context) error {
	cfg, closeLog := loadConfig(c)
	defer closeLog()
	identity := loadIdentity()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(newInstaller(cfg), server.Options{
		Addr:      cfg.Addr(),
		Version:   version,
		DeviceId:  identity.DeviceId,
		ExitDelay: cfg.Server.ExitDelay,
		Terminate: stop,
	}, logging.GetLogger("server"))

	pterm.Success.Printf("modman-agent %s listening on http://%s\n", version, cfg.Addr())
	return srv.Run(ctx)
}

func main() {
	app := &cli.App{
		Name:    "modman-agent",
		Usage:   "Install mods sent from the web into your Minecraft instances",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "path to config.toml"},
			&cli.IntFlag{Name: "verbosity", Usage: "0 warn, 1 info, 2 debug, 3 trace"},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run the local install agent",
				Action: serve,
			},
			{
				Name:  "status",
				Usage: "Print what the agent reports to the web app",
				Action: func(c *cli.Context) error {
					cfg, closeLog := loadConfig(c)
					defer closeLog()
					status := newInstaller(cfg).Status(version, loadIdentity().DeviceId)

					out, err := json.MarshalIndent(status, "", "  ")
					if err != nil {
						return err
					}
					fmt.Println(string(out))
					return nil
				},
			},
			{
				Name:    "instances",
				Aliases: []string{"ls"},
				Usage:   "List detected instances",
				Action: func(c *cli.Context) error {
					cfg, closeLog := loadConfig(c)
					defer closeLog()
					instances := newInstaller(cfg).Locator().ListInstances()
					if len(instances) == 0 {
						fmt.Println("No minecraft directory found")
						return nil
					}

					lid := len("ID:")
					lname := len("NAME:")
					for _, instance := range instances {
						if len(instance.Id) > lid {
							lid = len(instance.Id)
						}
						if len(instance.Name) > lname {
							lname = len(instance.Name)
						}
					}

					fmt.Println()
					fmt.Println(text.AlignDefault.Apply("ID:", lid+2) + text.AlignDefault.Apply("NAME:", lname+2) + "PATH:")
					for _, instance := range instances {
						fmt.Println(text.AlignDefault.Apply(text.Bold.Sprint(instance.Id), lid+2) + text.AlignDefault.Apply(instance.Name, lname+2) + instance.Path)
					}
					fmt.Println()
					return nil
				},
			},
			{
				Name:      "install",
				Usage:     "Run an install request from a JSON file",
				ArgsUsage: "<request.json>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return cli.Exit("expected exactly one request file", 1)
					}
					cfg, closeLog := loadConfig(c)
					defer closeLog()

					data, err := os.ReadFile(c.Args().First())
					if err != nil {
						return err
					}
					if !gjson.GetBytes(data, "items").IsArray() {
						return cli.Exit("items must be a list", 1)
					}

					var req util.InstallRequest
					if err := json.Unmarshal(data, &req); err != nil {
						return err
					}
					req.Mode = util.ParseMode(string(req.Mode))

					if err := newInstaller(cfg).Install(context.Background(), req); err != nil {
						return err
					}
					pterm.Success.Printf("Installed %d item(s)\n", len(req.Items))
					return nil
				},
			},
			{
				Name:      "init",
				Usage:     "Remember a custom .minecraft directory",
				ArgsUsage: "<dir>",
				Action: func(c *cli.Context) error {
					if c.Args().Len() != 1 {
						return cli.Exit("expected the .minecraft directory", 1)
					}
					dir, err := filepath.Abs(c.Args().First())
					if err != nil {
						return err
					}
					if !fileutils.DirExists(dir) {
						return cli.Exit(dir+" is not a directory", 1)
					}
					if err := fileutils.SetDotMinecraft(dir); err != nil {
						return err
					}
					pterm.Success.Println("Using " + dir)
					return nil
				},
			},
			{
				Name:  "id",
				Usage: "Print this machine's device identity",
				Action: func(c *cli.Context) error {
					_, closeLog := loadConfig(c)
					defer closeLog()
					identity := loadIdentity()
					pterm.Info.Printf("%s (created %s)\n", identity.DeviceId, identity.CreatedAt.Format("2006-01-02"))
					return nil
				},
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
