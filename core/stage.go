package core

import (
	"strings"
	"unicode"
)

// StageKey is the canonical, case-insensitive identity of a pipeline stage.
type StageKey string

const (
	StageFetch     StageKey = "fetch"
	StageDecode    StageKey = "decode"
	StageExecute   StageKey = "execute"
	StageMemory    StageKey = "memory"
	StageWriteBack StageKey = "writeback"
)

// PipelineStages lists the five classic stages in pipeline order.
var PipelineStages = []StageKey{
	StageFetch,
	StageDecode,
	StageExecute,
	StageMemory,
	StageWriteBack,
}

var stageDisplayNames = map[StageKey]string{
	StageFetch:     "Fetch",
	StageDecode:    "Decode",
	StageExecute:   "Execute",
	StageMemory:    "Memory",
	StageWriteBack: "WriteBack",
}

// NormalizeStage folds a producer-supplied stage name into its key:
// lower case with every whitespace rune removed ("Write Back" -> "writeback").
func NormalizeStage(name string) StageKey {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return StageKey(b.String())
}

// IsPipelineStage reports whether k is one of the five classic stages.
func (k StageKey) IsPipelineStage() bool {
	_, ok := stageDisplayNames[k]
	return ok
}

// DisplayName returns the conventional spelling for classic stages and the
// key itself for custom ones.
func (k StageKey) DisplayName() string {
	if name, ok := stageDisplayNames[k]; ok {
		return name
	}
	return string(k)
}

// PipelineOrder returns the position of k in PipelineStages, or -1 for custom stages.
func (k StageKey) PipelineOrder() int {
	for i, s := range PipelineStages {
		if s == k {
			return i
		}
	}
	return -1
}
