package model

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPostPreview(t *testing.T) {
	short := Post{Text: "short body"}
	assert.Equal(t, "short body", short.Preview())

	long := Post{Text: strings.Repeat("x", 300)}
	assert.Equal(t, 127, len(long.Preview()))
	assert.True(t, strings.HasSuffix(long.Preview(), "..."))
}
