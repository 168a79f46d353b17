package ports

// Pair is one key with its translation read from an exchange file.
type Pair struct {
	Key         string
	Source      string
	Translation string
}

type ParseResult struct {
	Pairs []Pair
}

type Parser interface {
	Format() string
	Parse(data []byte) (ParseResult, error)
}
