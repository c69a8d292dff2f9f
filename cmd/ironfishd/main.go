// Command ironfishd is the chain core's process lifecycle entrypoint,
// wiring start/verify-block/mine behind github.com/urfave/cli/v2.
package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/iron-fish/chaincore/config"
	"github.com/iron-fish/chaincore/errors"
	"github.com/iron-fish/chaincore/mining"
	"github.com/iron-fish/chaincore/model"
	"github.com/iron-fish/chaincore/store/chainstore"
	"github.com/iron-fish/chaincore/store/kv"
	"github.com/iron-fish/chaincore/syncer"
	"github.com/iron-fish/chaincore/ulogger"
)

// initTracing installs a process-wide TracerProvider with no exporter
// attached; spans are sampled and dropped rather than shipped anywhere,
// since this module has no external-collaborator trace backend in scope.
// It exists so tracing.StartTracing's spans have a real provider behind
// them instead of the package-default no-op, and so Shutdown flushes any
// in-flight spans cleanly on exit.
func initTracing() func(context.Context) error {
	tp := sdktrace.NewTracerProvider()
	otel.SetTracerProvider(tp)
	return tp.Shutdown
}

func main() {
	app := &cli.App{
		Name:  "ironfishd",
		Usage: "Iron Fish chain core node",
		Commands: []*cli.Command{
			startCommand(),
			verifyBlockCommand(),
			mineCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openChain(dataDir string) (*kv.Store, *chainstore.Store, error) {
	kvStore, err := kv.Open(dataDir)
	if err != nil {
		return nil, nil, err
	}
	return kvStore, chainstore.New(kvStore), nil
}

// startCommand boots the syncer Stopped -> Starting -> Idle and blocks
// until interrupted. No initial block request is issued on boot, and no
// peers or BlockFetcher are registered with the syncer.
func startCommand() *cli.Command {
	return &cli.Command{
		Name:  "start",
		Usage: "boot the node and begin syncing toward the network tip",
		Action: func(cctx *cli.Context) error {
			shutdownTracing := initTracing()
			defer shutdownTracing(context.Background())

			settings := config.Load(".env")
			logger := ulogger.NewPretty("ironfishd", zerologLevel(settings.LogLevel))

			kvStore, chain, err := openChain(settings.DataDir)
			if err != nil {
				return err
			}
			defer kvStore.Close()

			s, err := syncer.New(chain, nil, nil, logger, syncer.Options{
				RPCTimeout:           settings.RPCTimeout,
				RecentBlockCacheSize: settings.RecentBlockCacheSize,
			})
			if err != nil {
				return err
			}

			ctx := cctx.Context
			if err := s.Start(ctx); err != nil {
				if errors.CodeOf(err) == errors.ErrFatalInvariant {
					logger.Fatalf("fatal invariant on boot: %v", err)
					os.Exit(1)
				}
				return err
			}

			logger.Infof("ironfishd started, state=%s", s.State())
			<-ctx.Done()

			return s.Shutdown(context.Background())
		},
	}
}

// verifyBlockCommand looks a header up by hash in the local chain store and
// prints its sequence and cumulative work, or NOT_FOUND. It does not run
// the verifier: block/transaction decoding from hex is an external wire
// format this command does not own.
func verifyBlockCommand() *cli.Command {
	return &cli.Command{
		Name:      "verify-block",
		Usage:     "look up a block header by hash in the local chain store",
		ArgsUsage: "<hash-hex>",
		Action: func(cctx *cli.Context) error {
			if cctx.Args().Len() != 1 {
				return cli.Exit("expected exactly one hash argument", 1)
			}

			raw, err := hex.DecodeString(cctx.Args().First())
			if err != nil || len(raw) != 32 {
				return cli.Exit("hash must be 32 bytes of hex", 1)
			}

			settings := config.Load(".env")
			kvStore, chain, err := openChain(settings.DataDir)
			if err != nil {
				return err
			}
			defer kvStore.Close()

			var hash [32]byte
			copy(hash[:], raw)

			header, found, err := chain.GetHeader(hash)
			if err != nil {
				return err
			}
			if !found {
				fmt.Println("NOT_FOUND")
				return nil
			}

			fmt.Printf("sequence=%d work=%s\n", header.Raw.Sequence, header.Work().String())
			return nil
		},
	}
}

// mineCommand drives the randomness-search loop against the current chain
// head for local/test mining.
func mineCommand() *cli.Command {
	return &cli.Command{
		Name:  "mine",
		Usage: "run the randomness search against the current chain head",
		Action: func(cctx *cli.Context) error {
			settings := config.Load(".env")
			kvStore, chain, err := openChain(settings.DataDir)
			if err != nil {
				return err
			}
			defer kvStore.Close()

			head, err := chain.Head()
			if err != nil {
				return err
			}

			prefix := model.RawBlockHeader{
				Sequence:              head.Raw.Sequence + 1,
				PreviousBlockHash:      head.Hash(),
				NoteCommitment:         head.Raw.NoteCommitment,
				TransactionCommitment:  head.Raw.TransactionCommitment,
				Target:                 head.Raw.Target,
				TimestampMillis:        head.Raw.TimestampMillis,
			}

			job := &mining.Job{}
			res, ok := mining.SearchBatch(cctx.Context, settings.Consensus, prefix, head.Raw.Target, 0, 1_000_000, job)
			if !ok {
				fmt.Println("no solution found in batch")
				return nil
			}

			fmt.Printf("found randomness=%d\n", res.Randomness)
			return nil
		},
	}
}

func zerologLevel(name string) zerolog.Level {
	level, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.InfoLevel
	}
	return level
}
