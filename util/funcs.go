package util

import (
	"github.com/hashicorp/go-set/v3"
	"iter"
)

func MapIter[A, B any](seq iter.Seq[A], f func(A) B) iter.Seq[B] {
	return func(yield func(B) bool) {
		for v := range seq {
			if !yield(f(v)) {
				return
			}
		}
	}
}

// SetFromSeq collects seq, with size as a capacity hint
func SetFromSeq[V comparable](seq iter.Seq[V], size int) *set.Set[V] {
	s := set.New[V](size)
	for item := range seq {
		s.Insert(item)
	}
	return s
}
