package langs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelium-dev/mycelium/internal/graph"
	"github.com/mycelium-dev/mycelium/internal/langs"
)

const rustSource = `use std::fmt;

pub struct User {
	pub id: u32,
}

pub trait Repository {
	fn find_by_id(&self, id: u32) -> User;
}

pub struct SQLRepository {}

impl SQLRepository {
	pub fn new() -> SQLRepository {
		SQLRepository {}
	}

	pub fn find_by_id(&self, id: u32) -> User {
		User { id }
	}
}

fn get_user(repo: &SQLRepository, id: u32) -> User {
	let user = repo.find_by_id(id);
	println!("{}", user.id);
	user
}
`

func TestRustAnalyser_ExtractsSymbolsImportsAndCalls(t *testing.T) {
	registry := langs.NewRegistry()
	analyser, ok := registry.ByLanguage(graph.LangRust)
	require.True(t, ok)
	require.True(t, analyser.IsAvailable())

	result, err := analyser.Extract("repo.rs", []byte(rustSource))
	require.NoError(t, err)

	byName := make(map[string]langs.RawSymbol)
	for _, s := range result.Symbols {
		byName[s.Name] = s
	}

	require.Contains(t, byName, "User")
	assert.Equal(t, graph.SymbolKindStruct, byName["User"].Kind)
	assert.True(t, byName["User"].Exported)

	require.Contains(t, byName, "Repository")
	assert.Equal(t, graph.SymbolKindTrait, byName["Repository"].Kind)

	require.Contains(t, byName, "SQLRepository")
	assert.Equal(t, graph.SymbolKindImpl, byName["SQLRepository"].Kind)

	require.Len(t, result.Imports, 1)
	assert.Equal(t, "std::fmt", result.Imports[0].Target)

	var sawFindByID, sawPrintln bool
	for _, c := range result.Calls {
		if c.Callee == "find_by_id" {
			sawFindByID = true
			assert.Equal(t, "get_user", c.CallerName)
			assert.Equal(t, "repo", c.Qualifier)
		}
		if c.Callee == "println" {
			sawPrintln = true
		}
	}
	assert.True(t, sawFindByID, "repo.find_by_id(id) call should be extracted with its qualifier")
	assert.True(t, sawPrintln, "println!(...) macro call should be extracted")
}

func TestRustAnalyser_IsBuiltinCallee(t *testing.T) {
	registry := langs.NewRegistry()
	analyser, _ := registry.ByLanguage(graph.LangRust)
	assert.True(t, analyser.IsBuiltinCallee("println"))
	assert.True(t, analyser.IsBuiltinCallee("panic"))
	assert.False(t, analyser.IsBuiltinCallee("find_by_id"))
}
