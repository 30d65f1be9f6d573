// Copyright 2021 The httpx Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package param

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeCollection(t *testing.T) {
	abc := []string{"a", "b", "c"}
	testCases := []struct {
		name   string
		policy CollectionPolicy
		sep    string
		want   string
	}{
		{"Recursive", Recursive, "", "data=a&data=b&data=c"},
		{"Unordered", Unordered, "", "data[]=a&data[]=b&data[]=c"},
		{"Ordered", Ordered, "", "data[0]=a&data[1]=b&data[2]=c"},
		{"Concatenated custom separator", Concatenated, ":", "data=a:b:c"},
		{"Concatenated default separator", Concatenated, "", "data=a,b,c"},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			pairs := EncodeCollection(abc, "data", testCase.policy, testCase.sep, QueryEscape)
			assert.Equal(t, testCase.want, Join(pairs, "&"))
		})
	}
}

func TestEncodeCollectionCardinality(t *testing.T) {
	for _, p := range []CollectionPolicy{Concatenated, Recursive, Unordered, Ordered} {
		t.Run(p.String(), func(t *testing.T) {
			assert.Empty(t, EncodeCollection(nil, "k", p, "", QueryEscape))
			assert.Empty(t, EncodeCollection([]string{}, "k", p, "", QueryEscape))
			values := []string{"1", "2", "3", "4", "5"}
			pairs := EncodeCollection(values, "k", p, "", QueryEscape)
			if p == Concatenated {
				assert.Len(t, pairs, 1)
			} else {
				assert.Len(t, pairs, len(values))
			}
		})
	}
}

func TestEncodeCollectionEscaping(t *testing.T) {
	values := []string{"a b", "c&d", "e,f"}
	t.Run("URL context escapes each value", func(t *testing.T) {
		pairs := EncodeCollection(values, "my key", Concatenated, "", QueryEscape)
		require.Len(t, pairs, 1)
		assert.Equal(t, "my+key", pairs[0].Key)
		assert.Equal(t, "a+b,c%26d,e%2Cf", pairs[0].Value)
	})
	t.Run("URL context keeps brackets", func(t *testing.T) {
		pairs := EncodeCollection(values, "k", Ordered, "", QueryEscape)
		assert.Equal(t, "k[0]=a+b&k[1]=c%26d&k[2]=e%2Cf", Join(pairs, "&"))
	})
	t.Run("no escaping outside URL contexts", func(t *testing.T) {
		pairs := EncodeCollection(values, "k", Concatenated, "; ", nil)
		require.Len(t, pairs, 1)
		assert.Equal(t, "a b; c&d; e,f", pairs[0].Value)
	})
}

func TestEncodeCollectionOrderPreserved(t *testing.T) {
	pairs := EncodeCollection([]string{"z", "a", "m"}, "k", Ordered, "", NoEscape)
	assert.Equal(t, "k[0]=z&k[1]=a&k[2]=m", Join(pairs, "&"))
}

func TestEncodeCollectionInvalidPolicy(t *testing.T) {
	assert.Panics(t, func() {
		EncodeCollection([]string{"a"}, "k", CollectionPolicy(7), "", nil)
	})
	assert.Equal(t, "CollectionPolicy(7)", CollectionPolicy(7).String())
}
