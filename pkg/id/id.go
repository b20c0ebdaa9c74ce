package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator hands out monotonic ULIDs: ids minted within the same
// millisecond still sort in generation order.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

func NewGenerator() *Generator {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return NewGeneratorWith(rand.New(rand.NewSource(seed)), time.Now)
}

// NewGeneratorWith uses the given entropy and clock. For tests.
func NewGeneratorWith(entropy io.Reader, now func() time.Time) *Generator {
	return &Generator{entropy: ulid.Monotonic(entropy, 0), now: now}
}

func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.entropy)
	if err != nil {
		// only on clock regression past the epoch or entropy exhaustion
		panic(err)
	}
	return id.String()
}

var std = NewGenerator()

// New returns a ULID from the package generator.
func New() string { return std.New() }
