package stagehand

import (
	"fmt"

	"go.uber.org/zap"
)

// BreakGame aborts the game with msg. It is the deliberate abort path for
// unrecoverable internal errors, never a recoverable condition.
func BreakGame(msg string) {
	panic("stagehand: " + msg)
}

// debugCheckDestroyed panics with a descriptive message when a destroyed
// entity is used in a tree operation. Only called in debug mode.
func debugCheckDestroyed(e *Entity, op string) {
	if e.destroyed {
		panic(fmt.Sprintf("stagehand debug: %s on destroyed entity %s", op, quoteID(e)))
	}
}

// debugCheckTreeDepth warns if tree depth exceeds the threshold.
const debugMaxTreeDepth = 32

func debugCheckTreeDepth(log *zap.Logger, e *Entity) {
	depth := 0
	for p := e; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		log.Warn("tree depth exceeds threshold",
			zap.Int("depth", depth), zap.Int("threshold", debugMaxTreeDepth), zap.String("entity", e.ID))
	}
}

// debugCheckChildCount warns if an entity has more than 1000 children.
const debugMaxChildCount = 1000

func debugCheckChildCount(log *zap.Logger, e *Entity) {
	if len(e.children) > debugMaxChildCount {
		log.Warn("entity has too many children",
			zap.String("entity", e.ID), zap.Int("children", len(e.children)), zap.Int("threshold", debugMaxChildCount))
	}
}
