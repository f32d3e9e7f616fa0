package main

import (
	"flag"
	"fmt"
	"os"

	"loxvm/internal/compiler"
	"loxvm/internal/logger"

	"github.com/charmbracelet/log"
)

// Main entry point for the loxvm interpreter.
func main() {
	options := compiler.Compiler{}

	flag.BoolVar(&options.Help, "h", false, "Show help")
	flag.BoolVar(&options.Verbose, "v", false, "Verbose mode")
	flag.BoolVar(&options.NoColor, "n", false, "No color")
	flag.BoolVar(&options.Disassemble, "d", false, "Disassemble bytecode before running")
	flag.BoolVar(&options.Trace, "t", false, "Trace execution")
	flag.BoolVar(&options.ImageInput, "i", false, "Input is a compiled image")
	flag.StringVar(&options.OutputFile, "o", "", "Write a compiled image instead of running")
	flag.StringVar(&options.ConfigFile, "config", "", "Path to loxvm.toml")

	flag.Parse()
	args := flag.Args()

	logger.Init(os.Stderr, options.Verbose, options.NoColor)
	if options.Help {
		fmt.Printf("Usage: %s [options] [file]\n", os.Args[0])
		fmt.Println("Options:")
		flag.PrintDefaults()
		return
	}

	if len(args) > 1 {
		log.Error("Too many arguments", "help", fmt.Sprintf("%s -h", os.Args[0]))
		os.Exit(compiler.ExitUsage)
	}
	if len(args) == 1 {
		options.SourceFile = args[0]
	}

	err := options.Compile()
	if err != nil && !compiler.Reported(err) {
		log.Error("Failed", "error", err)
	}
	os.Exit(compiler.ExitCode(err))
}
