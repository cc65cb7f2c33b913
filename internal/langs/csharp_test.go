package langs_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelium-dev/mycelium/internal/graph"
	"github.com/mycelium-dev/mycelium/internal/langs"
)

const csharpSource = `using System;

namespace App
{
	public interface IRepository
	{
		User FindByID(int id);
	}

	public class UserService
	{
		private readonly IRepository repo;

		public UserService(IRepository repo)
		{
			this.repo = repo;
		}

		public User GetUser(int id)
		{
			var user = repo.FindByID(id);
			Console.WriteLine(user.ToString());
			return user;
		}
	}
}
`

func TestCSharpAnalyser_ExtractsSymbolsImportsAndCalls(t *testing.T) {
	registry := langs.NewRegistry()
	analyser, ok := registry.ByLanguage(graph.LangCSharp)
	require.True(t, ok)
	require.True(t, analyser.IsAvailable())

	result, err := analyser.Extract("UserService.cs", []byte(csharpSource))
	require.NoError(t, err)

	byName := make(map[string]langs.RawSymbol)
	for _, s := range result.Symbols {
		byName[s.Name] = s
	}

	require.Contains(t, byName, "IRepository")
	assert.Equal(t, graph.SymbolKindInterface, byName["IRepository"].Kind)
	assert.True(t, byName["IRepository"].Exported)

	require.Contains(t, byName, "UserService")
	assert.Equal(t, graph.SymbolKindClass, byName["UserService"].Kind)

	require.Contains(t, byName, "GetUser")
	assert.Equal(t, graph.SymbolKindMethod, byName["GetUser"].Kind)
	assert.Equal(t, "UserService", byName["GetUser"].Parent)

	require.NotEmpty(t, result.Imports)
	assert.Equal(t, "System", result.Imports[0].Target)

	var sawFindByID, sawWriteLine bool
	for _, c := range result.Calls {
		if c.Callee == "FindByID" {
			sawFindByID = true
			assert.Equal(t, "GetUser", c.CallerName)
			assert.Equal(t, "repo", c.Qualifier)
		}
		if c.Callee == "WriteLine" {
			sawWriteLine = true
		}
	}
	assert.True(t, sawFindByID, "repo.FindByID(id) call should be extracted with its qualifier")
	assert.True(t, sawWriteLine, "Console.WriteLine(...) call should be extracted")
}

func TestCSharpAnalyser_IsBuiltinCallee(t *testing.T) {
	registry := langs.NewRegistry()
	analyser, _ := registry.ByLanguage(graph.LangCSharp)
	assert.True(t, analyser.IsBuiltinCallee("WriteLine"))
	assert.False(t, analyser.IsBuiltinCallee("FindByID"))
}
