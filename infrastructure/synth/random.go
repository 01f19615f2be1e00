package synth

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/isectech/ctf-datagen/domain/entity"
)

// TimeLayout is the timestamp format of every TimeGenerated-style field
const TimeLayout = "2006-01-02T15:04:05Z"

const defaultDaysBack = 7

// Generator owns the random source and reference time for one exercise.
// It is not safe for concurrent use; each exercise gets its own.
type Generator struct {
	rng         *rand.Rand
	now         time.Time
	internalIPs []string
	externalIPs []string
}

// SeedFor derives the per-exercise seed from the run seed
func SeedFor(seed int64, exercise entity.ExerciseID) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(exercise))
	return seed ^ int64(h.Sum64())
}

// NewGenerator creates a generator for exercise. The same (seed, exercise, now)
// always yields the same draws.
func NewGenerator(seed int64, exercise entity.ExerciseID, now time.Time) *Generator {
	return newGenerator(rand.New(rand.NewSource(SeedFor(seed, exercise))), now)
}

// newGenerator wraps an existing random source
func newGenerator(rng *rand.Rand, now time.Time) *Generator {
	g := &Generator{
		rng: rng,
		now: now.UTC().Truncate(time.Second),
	}
	g.internalIPs = g.ipPool(g.internalIP)
	g.externalIPs = g.ipPool(g.externalIP)
	return g
}

// Now returns the reference time
func (g *Generator) Now() time.Time {
	return g.now
}

// Intn returns a value in [0, n)
func (g *Generator) Intn(n int) int {
	return g.rng.Intn(n)
}

// IntRange returns a value in [lo, hi]
func (g *Generator) IntRange(lo, hi int) int {
	return lo + g.rng.Intn(hi-lo+1)
}

// Choice picks one element of items
func Choice[T any](g *Generator, items []T) T {
	return items[g.rng.Intn(len(items))]
}

// WeightedChoice picks items[i] with probability weights[i]/sum(weights)
func WeightedChoice[T any](g *Generator, items []T, weights []int) T {
	total := 0
	for _, w := range weights {
		total += w
	}
	n := g.rng.Intn(total)
	for i, w := range weights {
		if n < w {
			return items[i]
		}
		n -= w
	}
	return items[len(items)-1]
}

// Shuffle randomizes record order in place
func (g *Generator) Shuffle(records []*entity.Record) {
	g.rng.Shuffle(len(records), func(i, j int) {
		records[i], records[j] = records[j], records[i]
	})
}

// UUID draws a version 4 UUID from the generator's source
func (g *Generator) UUID() string {
	id, err := uuid.NewRandomFromReader(g.rng)
	if err != nil {
		// rand.Rand never fails to read
		panic(err)
	}
	return id.String()
}

// FormatTime renders t in the dataset timestamp layout
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// Timestamp returns an instant up to daysBack days before the reference time,
// always strictly earlier than it.
func (g *Generator) Timestamp(daysBack int) string {
	delta := time.Duration(g.IntRange(0, daysBack))*24*time.Hour +
		time.Duration(g.IntRange(0, 23))*time.Hour +
		time.Duration(g.IntRange(0, 59))*time.Minute +
		time.Duration(g.IntRange(0, 59))*time.Second
	if delta == 0 {
		delta = time.Second
	}
	return FormatTime(g.now.Add(-delta))
}

// RecentTimestamp is Timestamp over the default one-week window
func (g *Generator) RecentTimestamp() string {
	return g.Timestamp(defaultDaysBack)
}

// NightTimestamp returns an instant between 00:00 and 03:59:59 on one of the
// last eight days, never later than the reference time.
func (g *Generator) NightTimestamp() string {
	return g.timestampInHours(0, 3)
}

// DaytimeTimestamp returns an instant between 04:00 and 23:59:59 on one of
// the last eight days, strictly earlier than the reference time.
func (g *Generator) DaytimeTimestamp() string {
	return g.timestampInHours(4, 23)
}

func (g *Generator) timestampInHours(fromHour, toHour int) string {
	day := g.now.AddDate(0, 0, -g.IntRange(0, defaultDaysBack))
	t := time.Date(day.Year(), day.Month(), day.Day(),
		g.IntRange(fromHour, toHour), g.IntRange(0, 59), g.IntRange(0, 59), 0, time.UTC)
	if !t.Before(g.now) {
		t = t.AddDate(0, 0, -1)
	}
	return FormatTime(t)
}

// InternalIP picks an address from the private pool
func (g *Generator) InternalIP() string {
	return Choice(g, g.internalIPs)
}

// ExternalIP picks an address from the public pool
func (g *Generator) ExternalIP() string {
	return Choice(g, g.externalIPs)
}

func (g *Generator) ipPool(next func() string) []string {
	pool := make([]string, 0, ipPoolSize)
	for len(pool) < ipPoolSize {
		ip := next()
		if reservedIPs[ip] {
			continue
		}
		pool = append(pool, ip)
	}
	return pool
}

func (g *Generator) internalIP() string {
	return fmt.Sprintf("10.0.%d.%d", g.IntRange(1, 254), g.IntRange(1, 254))
}

func (g *Generator) externalIP() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		g.IntRange(1, 223), g.IntRange(0, 255), g.IntRange(0, 255), g.IntRange(1, 254))
}
