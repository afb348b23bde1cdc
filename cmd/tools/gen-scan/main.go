// Command gen-scan writes synthetic wall scan text for exercising plastermate.
package main

import (
	"flag"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/banshee-data/plastermate/internal/wallscan/synthetic"
)

func main() {
	def := synthetic.DefaultScanConfig()
	output := flag.String("o", "", "output path (default: stdout)")
	levels := flag.Int("levels", def.Levels, "number of levels")
	steps := flag.Int("steps", def.StepsPerLevel, "readings per level")
	span := flag.Float64("span", def.AzimuthSpanDeg, "azimuth sweep in degrees")
	rangeMM := flag.Float64("range", def.RangeMM, "wall range in mm")
	depth := flag.Float64("bulge", def.BulgeDepthMM, "bulge depth toward the sensor in mm")
	bulgeAz := flag.Float64("bulge-az", def.BulgeAzimuthDeg, "bulge centre azimuth in degrees")
	bulgeLevel := flag.Int("bulge-level", def.BulgeLevel, "bulge centre level")
	noise := flag.Float64("noise", def.NoiseMM, "range noise standard deviation in mm")
	seed := flag.Int64("seed", 0, "random seed (0: time based)")
	flag.Parse()

	cfg := def
	cfg.Levels = *levels
	cfg.StepsPerLevel = *steps
	cfg.AzimuthSpanDeg = *span
	cfg.RangeMM = *rangeMM
	cfg.BulgeDepthMM = *depth
	cfg.BulgeAzimuthDeg = *bulgeAz
	cfg.BulgeLevel = *bulgeLevel
	cfg.NoiseMM = *noise

	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}
	text, err := synthetic.Scan(cfg, rand.New(rand.NewSource(*seed)))
	if err != nil {
		log.Fatalf("gen-scan: %v", err)
	}

	if *output == "" {
		if _, err := os.Stdout.WriteString(text); err != nil {
			log.Fatalf("gen-scan: %v", err)
		}
		return
	}
	if err := os.WriteFile(*output, []byte(text), 0644); err != nil {
		log.Fatalf("gen-scan: %v", err)
	}
	log.Printf("✓ Created: %s (%d levels x %d readings, seed %d)", *output, cfg.Levels, cfg.StepsPerLevel, *seed)
}
