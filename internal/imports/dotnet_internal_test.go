package imports

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mycelium-dev/mycelium/internal/graph"
)

const sampleCsproj = `<Project Sdk="Microsoft.NET.Sdk">
  <PropertyGroup>
    <TargetFramework>net8.0</TargetFramework>
    <RootNamespace>Acme.Core</RootNamespace>
  </PropertyGroup>
  <ItemGroup>
    <ProjectReference Include="..\Acme.Shared\Acme.Shared.csproj" />
    <PackageReference Include="Newtonsoft.Json" Version="13.0.1" />
  </ItemGroup>
</Project>
`

func TestScanDotNet_ParsesProjectFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "Acme.Core"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "Acme.Core", "Acme.Core.csproj"), []byte(sampleCsproj), 0o644))

	files := []graph.File{{Path: "Acme.Core/Acme.Core.csproj", Language: graph.LangCSharp}}
	projects, _ := scanDotNet(root, files)
	require.Len(t, projects, 1)

	p := projects[0]
	assert.Equal(t, "Acme.Core", p.RootNamespace)
	assert.Equal(t, "net8.0", p.TargetFramework)
	require.Len(t, p.ProjectRefs, 1)
	assert.Equal(t, "Acme.Shared/Acme.Shared.csproj", p.ProjectRefs[0])
	require.Len(t, p.PackageRefs, 1)
	assert.Equal(t, "Newtonsoft.Json", p.PackageRefs[0].Package)
	assert.Equal(t, "13.0.1", p.PackageRefs[0].Version)
}

func TestScanDotNet_SolutionFolderGUIDExcluded(t *testing.T) {
	root := t.TempDir()
	sln := `Project("{2150E333-8FDC-42A3-9474-1A3956D46DE8}") = "Solution Items", "Solution Items", "{AAAAAAAA-0000-0000-0000-000000000000}"
EndProject
Project("{FAE04EC0-301F-11D3-BF4B-00C04F79EFBC}") = "Acme.Core", "Acme.Core\Acme.Core.csproj", "{BBBBBBBB-0000-0000-0000-000000000000}"
EndProject
`
	require.NoError(t, os.WriteFile(filepath.Join(root, "Acme.sln"), []byte(sln), 0o644))

	files := []graph.File{{Path: "Acme.sln", Language: graph.LangCSharp}}
	_, slnPaths := scanDotNet(root, files)
	require.Len(t, slnPaths, 1)
	assert.Equal(t, "Acme.Core/Acme.Core.csproj", slnPaths[0])
}
