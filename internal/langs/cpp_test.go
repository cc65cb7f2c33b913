package langs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelium-dev/mycelium/internal/graph"
	"github.com/mycelium-dev/mycelium/internal/langs"
)

const cppSource = `#include <iostream>

namespace app {

class Repository {
public:
	Repository();
	int findByID(int id);
};

Repository::Repository() {}

int Repository::findByID(int id) {
	return id;
}

}

int main() {
	app::Repository repo;
	std::cout << repo.findByID(1) << std::endl;
	return 0;
}
`

func TestCPPAnalyser_ExtractsSymbolsImportsAndCalls(t *testing.T) {
	registry := langs.NewRegistry()
	analyser, ok := registry.ByLanguage(graph.LangCPP)
	require.True(t, ok)
	require.True(t, analyser.IsAvailable())

	result, err := analyser.Extract("repo.cpp", []byte(cppSource))
	require.NoError(t, err)

	byName := make(map[string]langs.RawSymbol)
	for _, s := range result.Symbols {
		byName[s.Name] = s
	}

	require.Contains(t, byName, "app")
	assert.Equal(t, graph.SymbolKindNamespace, byName["app"].Kind)

	require.Contains(t, byName, "Repository")
	assert.Equal(t, graph.SymbolKindClass, byName["Repository"].Kind)

	require.Len(t, result.Imports, 1)
	assert.Equal(t, "<iostream>", result.Imports[0].Target)

	var sawFindByID bool
	for _, c := range result.Calls {
		if c.Callee == "findByID" {
			sawFindByID = true
			assert.Equal(t, "main", c.CallerName)
		}
	}
	assert.True(t, sawFindByID, "repo.findByID(1) call should be extracted with its qualifier")
}

func TestCPPAnalyser_IsBuiltinCallee(t *testing.T) {
	registry := langs.NewRegistry()
	analyser, _ := registry.ByLanguage(graph.LangCPP)
	assert.True(t, analyser.IsBuiltinCallee("make_shared"))
	assert.True(t, analyser.IsBuiltinCallee("printf"), "cpp builtins extend the c builtin set")
	assert.False(t, analyser.IsBuiltinCallee("findByID"))
}
