package board

// Zobrist hash keys for grid hashing.
// Uses PRNG with fixed seed for reproducibility.
var (
	zobristPiece      [5][64]uint64 // [Piece][Square], Empty row unused
	zobristSideToMove uint64        // XOR when black to move
)

func init() {
	initZobrist()
}

// Simple PRNG for reproducible Zobrist keys
type prng struct {
	state uint64
}

func newPRNG(seed uint64) *prng {
	return &prng{state: seed}
}

// xorshift64* algorithm
func (p *prng) next() uint64 {
	p.state ^= p.state >> 12
	p.state ^= p.state << 25
	p.state ^= p.state >> 27
	return p.state * 0x2545F4914F6CDD1D
}

func initZobrist() {
	rng := newPRNG(0x98F107A2BEEF1234)

	for p := WhiteMan; p <= BlackKing; p++ {
		for sq := Square(0); sq < NoSquare; sq++ {
			zobristPiece[p][sq] = rng.next()
		}
	}

	zobristSideToMove = rng.next()
}

// Hash returns the Zobrist key of the grid with side to move.
func (g Grid) Hash(side Color) uint64 {
	var h uint64
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if p := g[row][col]; p != Empty && p <= BlackKing {
				h ^= zobristPiece[p][NewSquare(row, col)]
			}
		}
	}
	if side == Black {
		h ^= zobristSideToMove
	}
	return h
}
