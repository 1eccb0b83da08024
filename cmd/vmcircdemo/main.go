// {{{ Copyright (c) Paul R. Tagliamonte <paultag@gmail.com> 2020-2021
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE. }}}

// Command vmcircdemo exercises the vmcircbuffer library end to end: one
// writer goroutine producing uint32 counter batches, N reader goroutines
// draining them at independent rates, wired through the blocking facade.
// It is a sample pipeline, not part of the library's public API.
package main

import (
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pault.ag/go/vmcircbuffer"
	"pault.ag/go/vmcircbuffer/blocking"
)

var cmd Cmd

// Cmd is the command line arguments.
type Cmd struct {
	ConfigPath string
}

var rootCmd = &cobra.Command{
	Use:   "vmcircdemo",
	Short: "Exercise the double-mapped circular buffer with a writer and N readers",
	Run: func(rawCmd *cobra.Command, args []string) {
		if err := run(cmd); err != nil {
			fmt.Printf("ERROR: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.Flags().StringVarP(&cmd.ConfigPath, "config", "c", "", "Path to a vmcircdemo.toml config file (optional)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Printf("ERROR: %v\n", err)
		os.Exit(1)
	}
}

func run(cmd Cmd) error {
	cfg, err := loadConfig(cmd.ConfigPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}
	zapCfg := zap.NewProductionConfig()
	zapCfg.Level = level
	logger, err := zapCfg.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}
	defer logger.Sync()
	log := logger.Sugar()

	var opts []vmcircbuffer.Option
	opts = append(opts, vmcircbuffer.WithLogger(log))
	if cfg.TmpDir != "" {
		opts = append(opts, vmcircbuffer.WithTempDir(cfg.TmpDir))
	}

	ring, err := blocking.New[uint32, struct{}](cfg.Capacity, opts...)
	if err != nil {
		return fmt.Errorf("failed to allocate ring: %w", err)
	}
	defer ring.Close()

	log.Infow("ring allocated", "capacity", ring.Capacity())

	var wg sync.WaitGroup
	readers := make([]*blocking.Reader[uint32, struct{}], cfg.Readers)
	for i := range readers {
		readers[i] = ring.NewReader()
	}

	for i, rd := range readers {
		wg.Add(1)
		go func(i int, rd *blocking.Reader[uint32, struct{}]) {
			defer wg.Done()
			total := 0
			for {
				window, _, ok := rd.Slice()
				if !ok {
					log.Infow("reader done", "reader", i, "total", total)
					return
				}
				n := len(window)
				rd.Consume(n)
				total += n
			}
		}(i, rd)
	}

	writer := ring.NewWriter()
	var counter uint32
	for b := 0; b < cfg.Batches; b++ {
		window := writer.Slice()
		n := cfg.BatchSize
		if n > len(window) {
			n = len(window)
		}
		for i := 0; i < n; i++ {
			window[i] = counter
			counter++
		}
		writer.Produce(n)
	}
	writer.Close()

	wg.Wait()
	log.Infow("done", "produced", counter)
	return nil
}

// vim: foldmethod=marker
