package dataset

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/buffer-dashboard/internal/config"
	"github.com/sells-group/buffer-dashboard/internal/geometry"
)

// Load reads the three datasets described by cfg and builds the bundle.
// Any failure is returned as a *LoadError naming the offending file.
func Load(ctx context.Context, cfg config.DataConfig) (*Bundle, error) {
	log := zap.L().With(zap.String("component", "dataset.loader"))

	roadsPath := filepath.Join(cfg.Dir, cfg.RoadsFile)
	settlementsPath := filepath.Join(cfg.Dir, cfg.SettlementsFile)
	portsPath := filepath.Join(cfg.Dir, cfg.PortsFile)

	delim := ';'
	if r := []rune(cfg.Delimiter); len(r) == 1 {
		delim = r[0]
	}

	var (
		roads       []Road
		settlements []Settlement
		ports       []Port
	)

	g, gctx := errgroup.WithContext(ctx)

	// Files load concurrently but failures are reported in file order:
	// roads, settlements, ports.
	errs := make([]error, 3)
	run := func(i int, fn func() error) {
		g.Go(func() error {
			errs[i] = fn()
			return nil
		})
	}

	run(0, func() error {
		if _, err := os.Stat(roadsPath); err != nil {
			return loadErr(cfg.RoadsFile, err)
		}
		dec, err := Decoder(cfg.ShapefileEncoding)
		if err != nil {
			return loadErr(cfg.RoadsFile, err)
		}
		out, err := ReadRoads(roadsPath, dec)
		if err != nil {
			return loadErr(cfg.RoadsFile, err)
		}
		roads = out
		return gctx.Err()
	})

	run(1, func() error {
		dec, err := Decoder(cfg.CSVEncoding)
		if err != nil {
			return loadErr(cfg.SettlementsFile, err)
		}
		err = readCSVFile(settlementsPath, CSVOptions{Delimiter: delim, Decoder: dec}, func(r io.Reader, o CSVOptions) error {
			out, err := ReadSettlements(r, o)
			settlements = out
			return err
		})
		if err != nil {
			return loadErr(cfg.SettlementsFile, err)
		}
		return gctx.Err()
	})

	run(2, func() error {
		dec, err := Decoder(cfg.CSVEncoding)
		if err != nil {
			return loadErr(cfg.PortsFile, err)
		}
		err = readCSVFile(portsPath, CSVOptions{Delimiter: delim, Decoder: dec}, func(r io.Reader, o CSVOptions) error {
			out, err := ReadPorts(r, o)
			ports = out
			return err
		})
		if err != nil {
			return loadErr(cfg.PortsFile, err)
		}
		return gctx.Err()
	})

	_ = g.Wait()
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	crs, err := resolveCRS(cfg.CRS, roadsPath)
	if err != nil {
		return nil, loadErr(cfg.RoadsFile, err)
	}
	projector, err := geometry.NewReprojector(crs)
	if err != nil {
		return nil, loadErr(cfg.RoadsFile, err)
	}

	b, err := NewBundle(roads, settlements, ports, projector, Options{
		RoadClasses:        cfg.RoadClasses,
		LargeSettlementMin: cfg.LargeSettlementMin,
	})
	if err != nil {
		return nil, eris.Wrap(err, "dataset: build bundle")
	}

	log.Info("datasets loaded",
		zap.Int("roads", len(b.Roads)),
		zap.Int("major_roads", len(b.MajorRoads)),
		zap.Int("settlements", len(b.Settlements)),
		zap.Int("large_settlements", len(b.LargeSettlements)),
		zap.Int("ports", len(b.Ports)),
		zap.Float64("center_lon", b.Center.Lon()),
		zap.Float64("center_lat", b.Center.Lat()),
	)

	return b, nil
}

// resolveCRS picks the source CRS: explicit configuration, then the roads
// .prj sidecar, then HTRS96/TM.
func resolveCRS(configured, roadsPath string) (string, error) {
	if configured != "" {
		return configured, nil
	}
	prj, err := ReadProjection(roadsPath)
	if err != nil {
		return "", err
	}
	if prj != "" {
		return prj, nil
	}
	zap.L().Info("dataset: no .prj found, assuming HTRS96/TM", zap.String("roads", roadsPath))
	return geometry.HTRS96, nil
}
