package langs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelium-dev/mycelium/internal/graph"
	"github.com/mycelium-dev/mycelium/internal/langs"
)

const javaSource = `package app;

import java.util.List;

public interface Repository {
	User findByID(int id);
}

public class UserService {
	private Repository repo;

	public UserService(Repository repo) {
		this.repo = repo;
	}

	public User getUser(int id) {
		User user = repo.findByID(id);
		System.out.println(user.toString());
		return user;
	}
}
`

func TestJavaAnalyser_ExtractsSymbolsImportsAndCalls(t *testing.T) {
	registry := langs.NewRegistry()
	analyser, ok := registry.ByLanguage(graph.LangJava)
	require.True(t, ok)
	require.True(t, analyser.IsAvailable())

	result, err := analyser.Extract("UserService.java", []byte(javaSource))
	require.NoError(t, err)

	byName := make(map[string]langs.RawSymbol)
	for _, s := range result.Symbols {
		byName[s.Name] = s
	}

	require.Contains(t, byName, "Repository")
	assert.Equal(t, graph.SymbolKindInterface, byName["Repository"].Kind)
	assert.True(t, byName["Repository"].Exported)

	require.Contains(t, byName, "UserService")
	assert.Equal(t, graph.SymbolKindClass, byName["UserService"].Kind)

	require.Contains(t, byName, "getUser")
	assert.Equal(t, graph.SymbolKindMethod, byName["getUser"].Kind)
	assert.Equal(t, "UserService", byName["getUser"].Parent)

	require.Len(t, result.Imports, 1)
	assert.Equal(t, "java.util.List", result.Imports[0].Target)

	var sawFindByID bool
	for _, c := range result.Calls {
		if c.Callee == "findByID" {
			sawFindByID = true
			assert.Equal(t, "getUser", c.CallerName)
			assert.Equal(t, "repo", c.Qualifier)
		}
	}
	assert.True(t, sawFindByID, "repo.findByID(id) call should be extracted with its qualifier")
}

func TestJavaAnalyser_IsBuiltinCallee(t *testing.T) {
	registry := langs.NewRegistry()
	analyser, _ := registry.ByLanguage(graph.LangJava)
	assert.True(t, analyser.IsBuiltinCallee("println"))
	assert.False(t, analyser.IsBuiltinCallee("findByID"))
}
