package store

import (
	"fmt"
	"time"

	exprlang "github.com/expr-lang/expr"

	"github.com/idilsaglam/todostate/internal/model"
)

// queryEnv is the typed environment a query expression runs against.
// Compiling against it makes unknown identifiers fail up front instead
// of silently matching nothing.
type queryEnv struct {
	ID        string    `expr:"id"`
	Title     string    `expr:"title"`
	Completed bool      `expr:"completed"`
	Position  int       `expr:"position"`
	CreatedAt time.Time `expr:"created_at"`
	UpdatedAt time.Time `expr:"updated_at"`
}

func newQueryEnv(t model.Todo) queryEnv {
	return queryEnv{
		ID:        t.ID,
		Title:     t.Title,
		Completed: t.Completed,
		Position:  t.Position,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

// Query evaluates a boolean expression against every todo and returns
// the matches ordered by position. The expression sees each item as the
// environment:
//
//	id, title, completed, position, created_at, updated_at
//
// Example: `!completed && position < 3`, `title contains "milk"`.
// Compile and evaluation failures, including references to fields that
// do not exist, surface as *QueryError.
func (s *Store) Query(src string) ([]model.Todo, error) {
	if src == "" {
		return nil, &QueryError{Expr: src, Err: &ValidationError{Field: "query", Reason: "must not be empty"}}
	}

	program, err := exprlang.Compile(src, exprlang.Env(queryEnv{}), exprlang.AsBool())
	if err != nil {
		return nil, &QueryError{Expr: src, Err: err}
	}

	items := s.items()
	byPos(items)
	out := make([]model.Todo, 0, len(items))
	for _, t := range items {
		res, err := exprlang.Run(program, newQueryEnv(t))
		if err != nil {
			return nil, &QueryError{Expr: src, Err: err}
		}
		keep, ok := res.(bool)
		if !ok {
			return nil, &QueryError{Expr: src, Err: fmt.Errorf("expression returned %T, want bool", res)}
		}
		if keep {
			out = append(out, t)
		}
	}
	return out, nil
}
