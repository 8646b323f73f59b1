// Package tfidf implements a term-weighted document index over a command
// corpus. Documents and queries are projected into a TF-IDF vector space
// and compared by cosine similarity.
package tfidf

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

// tokenPattern keeps word tokens of two or more characters; single-letter
// flags carry no weight for template retrieval.
var tokenPattern = regexp.MustCompile(`\w\w+`)

// Hit is one document matched against a query.
type Hit struct {
	Doc   string
	Index int
	Score float64
}

// Vectorizer holds a fixed term-weighting model fit over a corpus.
// It is immutable after Fit and safe for concurrent use.
type Vectorizer struct {
	corpus []string
	vocab  map[string]int
	idf    []float64
	docs   []map[int]float64 // l2-normalized sparse TF-IDF vectors
}

// Fit builds a vectorizer over the given corpus. An empty corpus is valid
// and yields a model whose queries match nothing.
func Fit(corpus []string) *Vectorizer {
	v := &Vectorizer{
		corpus: corpus,
		vocab:  make(map[string]int),
	}

	tokenized := make([][]string, len(corpus))
	df := make(map[int]int)
	for i, doc := range corpus {
		tokens := tokenize(doc)
		tokenized[i] = tokens
		seen := make(map[int]bool)
		for _, tok := range tokens {
			id, ok := v.vocab[tok]
			if !ok {
				id = len(v.vocab)
				v.vocab[tok] = id
			}
			if !seen[id] {
				seen[id] = true
				df[id]++
			}
		}
	}

	// Smoothed IDF, as if one extra document contained every term.
	n := float64(len(corpus))
	v.idf = make([]float64, len(v.vocab))
	for id, count := range df {
		v.idf[id] = math.Log((1+n)/(1+float64(count))) + 1
	}

	v.docs = make([]map[int]float64, len(corpus))
	for i, tokens := range tokenized {
		v.docs[i] = v.vectorize(tokens)
	}
	return v
}

// Len returns the number of documents in the corpus.
func (v *Vectorizer) Len() int {
	return len(v.corpus)
}

// TopK returns the k corpus documents most similar to query, ordered by
// descending cosine similarity. Scores are in [0,1]. Query terms outside
// the corpus vocabulary are ignored; a query with no known terms matches
// nothing.
func (v *Vectorizer) TopK(query string, k int) []Hit {
	if k <= 0 || len(v.corpus) == 0 {
		return nil
	}
	qv := v.vectorize(tokenize(query))
	if len(qv) == 0 {
		return nil
	}

	hits := make([]Hit, 0, len(v.corpus))
	for i, dv := range v.docs {
		score := dot(qv, dv)
		if score <= 0 {
			continue
		}
		hits = append(hits, Hit{Doc: v.corpus[i], Index: i, Score: score})
	}

	sort.SliceStable(hits, func(a, b int) bool {
		return hits[a].Score > hits[b].Score
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// vectorize builds an l2-normalized sparse TF-IDF vector. Tokens missing
// from the vocabulary are dropped.
func (v *Vectorizer) vectorize(tokens []string) map[int]float64 {
	vec := make(map[int]float64)
	for _, tok := range tokens {
		if id, ok := v.vocab[tok]; ok {
			vec[id] += v.idf[id]
		}
	}

	var norm float64
	for _, w := range vec {
		norm += w * w
	}
	if norm == 0 {
		return vec
	}
	norm = math.Sqrt(norm)
	for id := range vec {
		vec[id] /= norm
	}
	return vec
}

// dot computes the inner product of two sparse vectors. Both sides are
// l2-normalized, so this is the cosine similarity.
func dot(a, b map[int]float64) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for id, w := range a {
		sum += w * b[id]
	}
	return sum
}

func tokenize(s string) []string {
	return tokenPattern.FindAllString(strings.ToLower(s), -1)
}
