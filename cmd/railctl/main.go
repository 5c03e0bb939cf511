// Command railctl is an offline toolbox for world generation and config files.
//
//	railctl generate --width 32 --height 24 --seed 7
//	railctl generate --config classic
//	railctl validate --dir configs
//	railctl path --seed 7 --from 3,4 --to 20,11
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/urfave/cli/v3"
	"github.com/wricardo/rail-logistics-game/game/engine"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "railctl",
		Usage: "inspect generated worlds and game configurations",
		Commands: []*cli.Command{
			{
				Name:  "generate",
				Usage: "generate a world and print its map and stations",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "width", Value: 48, Usage: "world width in tiles"},
					&cli.IntFlag{Name: "height", Value: 48, Usage: "world height in tiles"},
					&cli.Int64Flag{Name: "seed", Usage: "world seed, 0 picks one at random"},
					&cli.StringFlag{Name: "config", Usage: "take size and seed from configs/<name>.json (honors CONFIG_DIR)"},
				},
				Action: runGenerate,
			},
			{
				Name:  "validate",
				Usage: "validate every configuration file in a directory",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "dir", Value: "configs", Sources: cli.EnvVars("CONFIG_DIR"), Usage: "configuration directory"},
				},
				Action: runValidate,
			},
			{
				Name:  "path",
				Usage: "plan the cheapest buildable path between two tiles of a generated world",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "width", Value: 48},
					&cli.IntFlag{Name: "height", Value: 48},
					&cli.Int64Flag{Name: "seed", Value: 1},
					&cli.StringFlag{Name: "from", Required: true, Usage: "start tile as x,y"},
					&cli.StringFlag{Name: "to", Required: true, Usage: "goal tile as x,y"},
				},
				Action: runPath,
			},
		},
	}
}

// worldSize checks generator dimensions against the engine limits
func worldSize(width, height int) error {
	if width < engine.MinMapSize || width > engine.MaxMapSize || height < engine.MinMapSize || height > engine.MaxMapSize {
		return fmt.Errorf("world must be between %d and %d tiles per side, got %dx%d",
			engine.MinMapSize, engine.MaxMapSize, width, height)
	}
	return nil
}

func runGenerate(ctx context.Context, cmd *cli.Command) error {
	width, height, seed := int(cmd.Int("width")), int(cmd.Int("height")), cmd.Int64("seed")
	if name := cmd.String("config"); name != "" {
		config, err := engine.LoadConfigByName(name)
		if err != nil {
			return err
		}
		width, height, seed = config.Width, config.Height, config.Seed
	}
	if err := worldSize(width, height); err != nil {
		return err
	}

	world := engine.NewWorldMap(width, height, seed)
	out := cmd.Root().Writer

	fmt.Fprintf(out, "World %dx%d seed %d\n\n", world.Width(), world.Height(), world.Seed())
	fmt.Fprintln(out, engine.RenderASCII(world, nil))
	printStations(out, world)
	printTerrain(out, world)
	return nil
}

func printStations(out io.Writer, world *engine.WorldMap) {
	stations := world.Stations()
	fmt.Fprintf(out, "\nStations (%d):\n", len(stations))
	for _, pos := range stations {
		tile, _ := world.TileAt(pos.X, pos.Y)
		fmt.Fprintf(out, "- %s at (%d,%d)", tile.StationKind, pos.X, pos.Y)
		if produces := cargoList(tile.Produces); produces != "" {
			fmt.Fprintf(out, " produces %s", produces)
		}
		if accepts := cargoList(tile.Accepts); accepts != "" {
			fmt.Fprintf(out, " accepts %s", accepts)
		}
		fmt.Fprintln(out)
	}
}

func printTerrain(out io.Writer, world *engine.WorldMap) {
	fmt.Fprintln(out, "\nTerrain:")
	for _, terrain := range []engine.TerrainType{engine.Grass, engine.Forest, engine.Water, engine.Mountain, engine.Desert, engine.Snow} {
		if n := engine.CountTerrain(world, terrain); n > 0 {
			fmt.Fprintf(out, "- %s: %d\n", terrain, n)
		}
	}
}

func cargoList(set engine.CargoSet) string {
	names := []string{}
	for _, c := range set.List() {
		names = append(names, c.String())
	}
	return strings.Join(names, ",")
}

func runValidate(ctx context.Context, cmd *cli.Command) error {
	dir := cmd.String("dir")
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no configuration files in %s", dir)
	}
	sort.Strings(files)

	out := cmd.Root().Writer
	invalid := 0
	for _, file := range files {
		config, err := engine.LoadGameConfig(file)
		if err != nil {
			invalid++
			fmt.Fprintf(out, "✗ %s: %v\n", filepath.Base(file), err)
			continue
		}
		fmt.Fprintf(out, "✓ %s: %s (%dx%d, level %d)\n", filepath.Base(file), config.Name, config.Width, config.Height, config.Level)
	}

	fmt.Fprintf(out, "\n%d valid, %d invalid\n", len(files)-invalid, invalid)
	if invalid > 0 {
		return fmt.Errorf("%d invalid configuration files", invalid)
	}
	return nil
}

func runPath(ctx context.Context, cmd *cli.Command) error {
	width, height := int(cmd.Int("width")), int(cmd.Int("height"))
	if err := worldSize(width, height); err != nil {
		return err
	}
	from, err := parsePosition(cmd.String("from"))
	if err != nil {
		return err
	}
	to, err := parsePosition(cmd.String("to"))
	if err != nil {
		return err
	}

	world := engine.NewWorldMap(width, height, cmd.Int64("seed"))
	out := cmd.Root().Writer

	path := engine.FindPath(world, from, to)
	if len(path) == 0 {
		fmt.Fprintf(out, "No buildable path from (%d,%d) to (%d,%d)\n", from.X, from.Y, to.X, to.Y)
		return nil
	}

	steps := make([]string, len(path))
	for i, p := range path {
		steps[i] = fmt.Sprintf("(%d,%d)", p.X, p.Y)
	}
	fmt.Fprintf(out, "Path of %d tiles, cost %d, manhattan %d\n", len(path), engine.PathCost(world, path), engine.ManhattanDistance(from, to))
	fmt.Fprintln(out, strings.Join(steps, " → "))
	return nil
}

// parsePosition parses "x,y"
func parsePosition(value string) (engine.Position, error) {
	parts := strings.Split(value, ",")
	if len(parts) != 2 {
		return engine.Position{}, fmt.Errorf("position must be x,y, got %q", value)
	}
	x, errX := strconv.Atoi(strings.TrimSpace(parts[0]))
	y, errY := strconv.Atoi(strings.TrimSpace(parts[1]))
	if errX != nil || errY != nil {
		return engine.Position{}, fmt.Errorf("position must be x,y, got %q", value)
	}
	return engine.Position{X: x, Y: y}, nil
}
