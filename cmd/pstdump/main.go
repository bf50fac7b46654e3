// pstdump inspects PST archives
// Prints the header, tree pages, properties and tables, or verifies a file
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sbridges/pasta/internal/logger"
	"github.com/sbridges/pasta/internal/metrics"
	"github.com/sbridges/pasta/internal/server"
	"github.com/sbridges/pasta/pkg/ndb"
	"github.com/sbridges/pasta/pkg/pst"
)

var (
	file        = flag.String("file", "", "PST file to read")
	cmd         = flag.String("cmd", "header", "header, tree, nodes, node, pc, tc or verify")
	nidFlag     = flag.String("nid", "0x21", "Node id for node, pc and tc")
	logLevel    = flag.String("log-level", "warn", "debug, info, warn or error")
	pretty      = flag.Bool("pretty", false, "Console log output")
	metricsAddr = flag.String("metrics-addr", "", "Serve /metrics and /health on this address")
	workers     = flag.Int("workers", pst.DefaultVerifyWorkers, "Parallel node checks for verify")
	maxDepth    = flag.Int("max-depth", ndb.DefaultMaxDepth, "Depth bound for tree walks")
)

func main() {
	flag.Parse()

	logger.InitGlobalLogger(logger.Config{
		Level:  *logLevel,
		Pretty: *pretty,
	})
	log := logger.GetGlobalLogger()

	if *file == "" {
		fmt.Fprintln(os.Stderr, "usage: pstdump -file archive.pst [-cmd header|tree|nodes|node|pc|tc|verify] [-nid 0x21]")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg)

	if *metricsAddr != "" {
		obs := server.NewObservabilityServer(*metricsAddr, reg, log)
		go func() {
			if err := obs.Start(); err != nil {
				log.Error("Observability server failed", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			obs.Shutdown(shutdownCtx)
		}()
	}

	if err := run(ctx, os.Stdout, log, m); err != nil {
		log.Error("pstdump failed", err)
		stop()
		os.Exit(1)
	}
}

func run(ctx context.Context, w io.Writer, log *logger.Logger, m *metrics.Metrics) error {
	r, err := pst.Open(*file,
		pst.WithLogger(*log.GetZerolog()),
		pst.WithMetrics(m),
		pst.WithMaxDepth(*maxDepth),
		pst.WithVerifyWorkers(*workers),
	)
	if err != nil {
		return err
	}
	defer r.Close()

	nid, err := parseNID(*nidFlag)
	if err != nil {
		return err
	}

	switch *cmd {
	case "header":
		return r.DumpHeader(w)
	case "tree":
		return r.Dump(w)
	case "nodes":
		return printNodes(w, r)
	case "node":
		return r.DumpNode(w, nid)
	case "pc":
		return printPC(w, r, nid)
	case "tc":
		return printTC(w, r, nid)
	case "verify":
		rep, err := r.Verify(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "ok: %d blocks, %d nodes, %d subnodes, %d heaps (%d PC, %d TC, %d BTH), %d properties, %d rows in %s\n",
			rep.Blocks, rep.Nodes, rep.Subnodes, rep.Heaps, rep.PCs, rep.TCs, rep.BTHs, rep.Properties, rep.Rows, rep.Duration)
		return nil
	}
	return fmt.Errorf("unknown command %q", *cmd)
}

func parseNID(s string) (ndb.NID, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid nid %q: %w", s, err)
	}
	return ndb.NID(v), nil
}

func printNodes(w io.Writer, r *pst.Reader) error {
	nodes, err := r.NBT().Entries()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NID\tTYPE\tDATA\tSUB\tPARENT")
	for _, e := range nodes {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", e.NID, e.NID.Type(), e.Data, e.Sub, e.Parent)
	}
	return tw.Flush()
}

func printPC(w io.Writer, r *pst.Reader, nid ndb.NID) error {
	pc, err := r.PC(nid)
	if err != nil {
		return err
	}
	ids, err := pc.IDs()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, id := range ids {
		v, _, err := pc.Get(id)
		if err != nil {
			return err
		}
		fmt.Fprintf(tw, "0x%04x\t%s\t%s\t%s\n", id, r.Catalog().Name(id), v.Type, v)
	}
	return tw.Flush()
}

func printTC(w io.Writer, r *pst.Reader, nid ndb.NID) error {
	tc, err := r.TC(nid)
	if err != nil {
		return err
	}
	cols := tc.Columns()
	ids, err := tc.RowIDs()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for i, c := range cols {
		if i > 0 {
			fmt.Fprint(tw, "\t")
		}
		fmt.Fprint(tw, c.Name)
	}
	fmt.Fprintln(tw)

	for _, id := range ids {
		for i, c := range cols {
			if i > 0 {
				fmt.Fprint(tw, "\t")
			}
			v, found, err := tc.Get(id, c.ID)
			if err != nil {
				return err
			}
			if found {
				fmt.Fprint(tw, v)
			}
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "%d rows\n", len(ids))
	return nil
}
