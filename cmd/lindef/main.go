package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/jessevdk/go-flags"
	"golang.org/x/term"

	"github.com/dnsdga/lindef/batch"
	"github.com/dnsdga/lindef/compiler"
	"github.com/dnsdga/lindef/config"
	"github.com/dnsdga/lindef/present"
	"github.com/dnsdga/lindef/util"
	"github.com/dnsdga/lindef/warehouse"
)

var version string

const timestampFormat = "2006-01-02 15:04:05"

type cliOptions struct {
	Timestamp      string `long:"timestamp" description:"reference timestamp for t0, as 'YYYY-MM-DD HH:MM:SS' (default: now)" value-name:"ts"`
	GroupBy        bool   `long:"group-by" description:"wrap the compiled query in a per-client frequency aggregation"`
	Execute        bool   `long:"execute" description:"run the compiled query against the warehouse instead of printing it"`
	Debug          bool   `long:"debug" description:"pretty-print each result row's structure instead of a tab-separated table"`
	Config         string `long:"config" description:"path to the warehouse/batch config file" value-name:"path" default:"config.toml"`
	RulesDir       string `long:"rules-dir" description:"directory of .linn rule files for batch mode" value-name:"dir" default:"examples"`
	ResultsDir     string `long:"results-dir" description:"directory batch mode writes per-rule result files to" value-name:"dir" default:"results"`
	PasswordPrompt bool   `long:"password-prompt" description:"prompt for the warehouse password instead of reading it from the config file"`
	Version        bool   `long:"version" description:"show this version"`
	Help           bool   `long:"help" description:"show this help"`
}

func main() {
	util.InitSlog()

	var opts cliOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "<filename|batch> [options]"
	args, err := parser.ParseArgs(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}
	if len(args) != 1 {
		fmt.Println("Exactly one argument is required: a rule filename, or 'batch'.")
		parser.WriteHelp(os.Stdout)
		os.Exit(1)
	}

	if args[0] == "batch" {
		runBatch(opts)
		return
	}
	runSingle(args[0], opts)
}

func runSingle(filename string, opts cliOptions) {
	source, err := os.ReadFile(filename)
	if err != nil {
		log.Fatal(err)
	}

	timestamp := time.Now()
	if opts.Timestamp != "" {
		timestamp, err = time.Parse(timestampFormat, opts.Timestamp)
		if err != nil {
			log.Fatalf("invalid --timestamp: %v", err)
		}
	}

	sql, err := compiler.Compile(string(source), compiler.Options{
		Timestamp:   timestamp,
		WithGroupBy: opts.GroupBy,
	})
	if err != nil {
		log.Fatal(err)
	}

	if !opts.Execute {
		fmt.Println(sql)
		return
	}

	wh := mustOpenWarehouse(opts)
	defer wh.Close()

	rows, err := wh.Run(context.Background(), sql, 30*time.Second)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(strings.Repeat("-", 79))
	if opts.Debug {
		for _, row := range rows {
			present.Debug(os.Stdout, row)
		}
		return
	}
	present.Rows(os.Stdout, rows)
}

func runBatch(opts cliOptions) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Fatal(err)
	}

	wh := mustOpenWarehouse(opts)
	defer wh.Close()

	runner := &batch.Runner{
		Warehouse:   wh,
		RulesDir:    opts.RulesDir,
		ResultsDir:  opts.ResultsDir,
		WithGroupBy: true,
	}

	summary, err := runner.Run(context.Background(), cfg.Batch)
	if err != nil {
		log.Fatal(err)
	}
	present.Summary(os.Stdout, summary)
}

func mustOpenWarehouse(opts cliOptions) *warehouse.Warehouse {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		log.Fatal(err)
	}

	if opts.PasswordPrompt {
		fmt.Print("Enter warehouse password: ")
		pass, err := term.ReadPassword(int(syscall.Stdin))
		fmt.Println()
		if err != nil {
			log.Fatal(err)
		}
		cfg.ODBC.Fields["pwd"] = string(pass)
	}

	wh, err := warehouse.Open(warehouseConfigFromODBC(cfg.ODBC))
	if err != nil {
		log.Fatal(err)
	}
	return wh
}

func warehouseConfigFromODBC(odbc config.ODBCConfig) warehouse.Config {
	port, _ := strconv.Atoi(odbc.Fields["port"])
	return warehouse.Config{
		DbType:   odbc.Fields["db_type"],
		Host:     odbc.Fields["server"],
		Port:     port,
		User:     odbc.Fields["uid"],
		Password: odbc.Fields["pwd"],
		DbName:   odbc.Fields["database"],
		Path:     odbc.Fields["path"],
	}
}
