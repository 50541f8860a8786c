// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

const (
	NoPluginRegisteredId Id = iota + 1
	ToolchainNotFoundId
	StagingStateViolationId
	ConfigLoadFailedId
	TrainLoadFailedId
	DependencyCycleId
	DeployFailedId
	ReleaseNotApprovedId
)

type (
	// Id identifies a catalog entry.
	//
	//nolint:revive // Id matches the catalog naming used across the CLI
	Id int

	// MarkdownMsg is the Markdown body of an issue.
	MarkdownMsg string

	// HttpLink is a documentation link shown under an issue.
	//
	//nolint:revive // HttpLink matches the catalog naming used across the CLI
	HttpLink string

	// Issue is one catalog entry.
	Issue struct {
		id       Id
		mdMsg    MarkdownMsg
		docLinks []HttpLink
	}
)

// Id returns the issue id.
func (i *Issue) Id() Id { return i.id }

// MarkdownMsg returns the Markdown body.
func (i *Issue) MarkdownMsg() MarkdownMsg { return i.mdMsg }

// DocLinks returns a copy of the documentation links.
func (i *Issue) DocLinks() []HttpLink { return slices.Clone(i.docLinks) }

// Render renders the issue as terminal Markdown using a glamour style
// ("dark", "light", "notty", "auto" or a style file path).
func (i *Issue) Render(stylePath string) (string, error) {
	md := string(i.mdMsg)
	if len(i.docLinks) > 0 {
		var b strings.Builder
		b.WriteString(md)
		b.WriteString("\n\n## See also\n")
		for _, link := range i.docLinks {
			b.WriteString("- " + string(link) + "\n")
		}
		md = b.String()
	}
	return render(md, stylePath)
}

var (
	render = glamour.Render

	issues = map[Id]*Issue{
		NoPluginRegisteredId: {
			id: NoPluginRegisteredId,
			mdMsg: `
# No build system plugin for this project

The train lists a project that no build system is registered for.

## Things you can try:
- Map the project to a plugin in your configuration:
~~~cue
plugins: {
	"jpa": "shell"
}
~~~
- Check the project identifier in the train descriptor for typos
- Run ` + "`trainctl config show`" + ` to see the registered plugins`,
		},
		ToolchainNotFoundId: {
			id: ToolchainNotFoundId,
			mdMsg: `
# No Java toolchain configured

trainctl could not determine which Java version the project must be built with.

## Detection order:
1. ` + "`toolchain.projects`" + ` in the configuration
2. ` + "`.java-version`" + ` in the project checkout
3. the ` + "`java=`" + ` line of ` + "`.sdkmanrc`" + ` in the project checkout
4. ` + "`toolchain.default`" + ` in the configuration

## Things you can try:
- Add a ` + "`.java-version`" + ` file to the project
- Set a default: ` + "`toolchain: default: \"17\"`",
		},
		StagingStateViolationId: {
			id: StagingStateViolationId,
			mdMsg: `
# Staging repository is in the wrong state

Repositories move strictly from **open** to **closed** to **released**.
A repository is never released while still open, and a released repository
accepts no further operations.

## Things you can try:
- Close the repository first: ` + "`trainctl staging close --id <id>`" + `
- Open a new repository for a fresh deployment`,
		},
		ConfigLoadFailedId: {
			id: ConfigLoadFailedId,
			mdMsg: `
# Failed to load configuration

The configuration file could not be read or does not match the schema.

## Things you can try:
- Print the effective defaults: ` + "`trainctl config dump`" + `
- Check the file location: ` + "`trainctl config path`" + `
- Validate the CUE syntax of the file`,
		},
		TrainLoadFailedId: {
			id: TrainLoadFailedId,
			mdMsg: `
# Failed to load the train descriptor

Train descriptors are CUE, YAML or TOML files:
~~~yaml
name: "2024.1"
modules:
  - project: commons
    version: 3.3.0
  - project: jpa
    version: 3.3.0
    depends_on: [commons]
~~~

## Things you can try:
- Make sure every ` + "`depends_on`" + ` entry names a module of the same train
- Use lowercase project identifiers`,
		},
		DependencyCycleId: {
			id: DependencyCycleId,
			mdMsg: `
# Dependency cycle in the train

Modules of a train must form a directed acyclic graph; trainctl builds and
deploys them in dependency order.

## Things you can try:
- Remove one of the ` + "`depends_on`" + ` edges listed in the error`,
		},
		DeployFailedId: {
			id: DeployFailedId,
			mdMsg: `
# Deployment failed

At least one module failed to deploy. The staging repository was left
**open** so its contents can be inspected; nothing was closed or released.

## Things you can try:
- Fix the failing modules and re-run the release
- Drop the staging repository in the staging service if it is not reused`,
		},
		ReleaseNotApprovedId: {
			id: ReleaseNotApprovedId,
			mdMsg: `
# Release not approved

The staging repository is **closed** but was not released.

## Things you can try:
- Release it later: ` + "`trainctl staging release --id <id>`" + `
- Re-run with ` + "`--yes`" + ` to skip the confirmation`,
		},
	}
)

// Values returns all catalog entries ordered by id.
func Values() []*Issue {
	out := make([]*Issue, 0, len(issues))
	for _, i := range issues {
		out = append(out, i)
	}
	slices.SortFunc(out, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return out
}

// Get returns the entry for id, or nil.
func Get(id Id) *Issue {
	return issues[id]
}
