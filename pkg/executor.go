package ghm

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime/pprof"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sevlyar/go-daemon"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const Version = "0.3.0"

type executor[R any] struct {
	rootCmd *cobra.Command
	c       []Consumer[R]
	p       Producer[R]

	pid          string
	log          string
	name         string
	envFile      string
	notdaemonize bool
	daemonWd     string
	cancel       func()
	debug        bool

	interval      int
	fail          int
	failOnConsume bool
}

func (ex *executor[R]) Main() {
	if err := ex.rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}

func NewExecutor[R any](name string, p Producer[R], c ...Consumer[R]) Executor {
	e := executor[R]{p: p, c: c, name: name}

	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s (LC-Sat ground station) v%s\n", name, Version)
		},
	}

	var stopCmd = &cobra.Command{
		Use:   "stop",
		Short: "Stop daemon",
		RunE:  e.stop,
	}

	e.rootCmd = &cobra.Command{
		Use:               name,
		Short:             "CanSat telemetry ground station",
		PersistentPreRunE: e.loadEnv,
		RunE:              e.execute,
	}
	e.rootCmd.AddCommand(versionCmd)
	e.rootCmd.AddCommand(stopCmd)
	e.rootCmd.PersistentFlags().StringVar(&e.envFile, "env-file", ".env", "Environment file with CANSAT_* flag defaults")
	e.rootCmd.PersistentFlags().StringVar(&e.log, "log", fmt.Sprintf("%s.log", name), "Log file")
	e.rootCmd.PersistentFlags().StringVar(&e.pid, "pid", fmt.Sprintf("%s.pid", name), "Pid file")
	e.rootCmd.PersistentFlags().BoolVarP(&e.notdaemonize, "not-daemon", "n", false, "Do not go to background")
	e.rootCmd.PersistentFlags().StringVar(&e.daemonWd, "daemon-workdir", "/tmp", "Daemon work dir")
	e.rootCmd.PersistentFlags().IntVar(&e.interval, "interval", 1, "Reading interval seconds")
	e.rootCmd.PersistentFlags().IntVar(&e.fail, "fail", 10, "Failed readings count to exit")
	e.rootCmd.PersistentFlags().BoolVar(&e.failOnConsume, "fail-on-consume", false, "Count consuming errors as failures")
	e.rootCmd.PersistentFlags().BoolVarP(&e.debug, "debug", "d", false, "Debug")

	p.Setup(e.rootCmd, name)
	for _, cs := range c {
		cs.Setup(e.rootCmd, name)
	}
	return &e
}

// loadEnv reads the env file, if any, and applies CANSAT_<FLAG> variables to
// flags not given on the command line.
func (ex *executor[R]) loadEnv(cmd *cobra.Command, args []string) error {
	log.SetFlags(log.Lshortfile | log.Ltime | log.Ldate)
	if _, err := os.Stat(ex.envFile); err == nil {
		if err := godotenv.Load(ex.envFile); err != nil {
			return fmt.Errorf("env file %s: %w", ex.envFile, err)
		}
	}
	return applyEnv(cmd.Flags())
}

func envName(flag string) string {
	return "CANSAT_" + strings.ToUpper(strings.ReplaceAll(flag, "-", "_"))
}

func applyEnv(fs *pflag.FlagSet) error {
	var err error
	fs.VisitAll(func(f *pflag.Flag) {
		if err != nil || f.Changed {
			return
		}
		if v, ok := os.LookupEnv(envName(f.Name)); ok {
			if serr := fs.Set(f.Name, v); serr != nil {
				err = fmt.Errorf("%s: %w", envName(f.Name), serr)
			}
		}
	})
	return err
}

func (ex *executor[R]) daemonContext() *daemon.Context {
	return &daemon.Context{
		PidFileName: ex.pid,
		PidFilePerm: 0644,
		LogFileName: ex.log,
		LogFilePerm: 0640,
		WorkDir:     ex.daemonWd,
		Umask:       027,
		Args:        os.Args,
	}
}

func (ex *executor[R]) execute(cmd *cobra.Command, args []string) error {
	// Daemonize before any goroutine or socket is created, the child
	// re-executes the command from scratch.
	if !ex.notdaemonize {
		d, err := ex.daemonContext().Reborn()
		if err != nil {
			return err
		}
		if d != nil {
			log.Printf("Created daemon process %d", d.Pid)
			return nil
		}
	}

	if err := ex.p.Init(ex.debug); err != nil {
		return err
	}
	for _, cs := range ex.c {
		if err := cs.Init(ex.debug); err != nil {
			return err
		}
	}

	var ctx context.Context
	ctx, ex.cancel = context.WithCancel(context.Background())

	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM, syscall.SIGUSR2)
	go ex.termHandler(ctx, ch)

	ex.loop(ctx)

	if err := ex.p.Close(); err != nil {
		log.Println(err)
	}
	for _, cs := range ex.c {
		if err := cs.Close(); err != nil {
			log.Println(err)
		}
	}
	return nil
}

func (ex *executor[R]) loop(ctx context.Context) {
	defer ex.cancel()
	actfail := 0
	ticker := time.NewTicker(time.Duration(ex.interval) * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("Exiting because of signal.")
			return
		case <-ticker.C:
			if ex.fail > 0 && actfail >= ex.fail {
				log.Printf("Fail limit reached (%d). Exiting.\n", actfail)
				return
			}
			if !ex.tick(&actfail) {
				return
			}
		}
	}
}

// tick runs one produce/consume round and reports whether to continue.
func (ex *executor[R]) tick(actfail *int) bool {
	v, err := ex.p.Produce()
	if errors.Is(err, ErrEndOfData) {
		log.Println("Producer has no more data. Exiting.")
		return false
	}
	if err != nil {
		log.Printf("[%d] %v\n", *actfail, err)
		*actfail++
		return true
	}
	*actfail = 0
	for i := range ex.c {
		if err := ex.c[i].Consume(v); err != nil {
			if ex.failOnConsume {
				*actfail++
			}
			log.Println(err)
		}
	}
	readingsTotal.Inc()
	return true
}

func (ex *executor[R]) stop(cmd *cobra.Command, args []string) error {
	d, err := ex.daemonContext().Search()
	if err != nil {
		return fmt.Errorf("unable to find the daemon: %w", err)
	}
	if d == nil {
		log.Printf("Daemon process already stopped")
		return nil
	}
	log.Printf("Stopping daemon %d", d.Pid)
	return d.Signal(syscall.SIGTERM)
}

func (ex *executor[R]) termHandler(ctx context.Context, ch chan os.Signal) {
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-ch:
			if sig == syscall.SIGUSR2 {
				fm, err := os.Create(fmt.Sprintf("/tmp/%s-mem.pprof", ex.name))
				if err != nil {
					log.Println(err)
					continue
				}
				if err := pprof.WriteHeapProfile(fm); err != nil {
					log.Println(err)
				}
				fm.Close()
			} else {
				log.Println("Terminating....")
				ex.cancel()
				return
			}
		}
	}
}
