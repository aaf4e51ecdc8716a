// Command loadgen generates a synthetic booking CSV for the Manager to
// replay (spec.md §4.4's "booking file": one "id,airline_fee,hotel_fee,
// bank_fee" line per transaction). Fees are drawn from a Zipfian
// distribution so a run exercises a realistic skew of cheap and
// expensive bookings instead of a flat random spread.
//
// Grounded on benchmark/ycsb.go's generator.Zipfian usage for
// transaction-value skew, stripped of the teacher's shard/read-write mix
// concerns the booking domain has no equivalent of.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"math/rand"
	"os"

	"github.com/pingcap/go-ycsb/pkg/generator"
)

var (
	outPath string
	count   int
	minFee  int64
	maxFee  int64
	skew    float64
	startID int64
	seed    int64
)

func init() {
	flag.StringVar(&outPath, "out", "data/bookings.csv", "path to write the generated booking CSV")
	flag.IntVar(&count, "count", 1000, "number of bookings to generate")
	flag.Int64Var(&minFee, "min-fee", 1, "minimum fee (cents) for any leg")
	flag.Int64Var(&maxFee, "max-fee", 50000, "maximum fee (cents) for any leg")
	flag.Float64Var(&skew, "skew", 0.9, "zipfian skew constant (0 = uniform, closer to 1 = more skewed)")
	flag.Int64Var(&startID, "start-id", 1, "first booking id")
	flag.Int64Var(&seed, "seed", 1, "rng seed")
}

func main() {
	flag.Parse()

	f, err := os.Create(outPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loadgen: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	defer w.Flush()

	r := rand.New(rand.NewSource(seed))
	airlineFee := generator.NewZipfianWithRange(minFee, maxFee, skew)
	hotelFee := generator.NewZipfianWithRange(minFee, maxFee, skew)
	bankFee := generator.NewZipfianWithRange(minFee, maxFee, skew)

	for i := int64(0); i < int64(count); i++ {
		id := startID + i
		a := float64(airlineFee.Next(r)) / 100
		h := float64(hotelFee.Next(r)) / 100
		b := float64(bankFee.Next(r)) / 100
		if _, err := fmt.Fprintf(w, "%d,%.2f,%.2f,%.2f\n", id, a, h, b); err != nil {
			fmt.Fprintf(os.Stderr, "loadgen: write error: %v\n", err)
			os.Exit(1)
		}
	}
	fmt.Printf("loadgen: wrote %d bookings to %s\n", count, outPath)
}
