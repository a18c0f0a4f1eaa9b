package tagsync

import "fmt"

// Mutation is a single change the sync orchestrator must apply to bring
// one side in line with the outcome of a diff. The concrete types below
// are the only implementations; sealed via the unexported method.
type Mutation interface {
	Path() LogicalPath
	mutationTag()
}

type AddLocal struct {
	LogicalPath LogicalPath
	Tag         Tag
}

func (m AddLocal) Path() LogicalPath { return m.LogicalPath }
func (AddLocal) mutationTag()        {}

type RemoveLocal struct {
	LogicalPath LogicalPath
	Tag         Tag
}

func (m RemoveLocal) Path() LogicalPath { return m.LogicalPath }
func (RemoveLocal) mutationTag()        {}

type AddRemote struct {
	LogicalPath LogicalPath
	Tag         Tag
}

func (m AddRemote) Path() LogicalPath { return m.LogicalPath }
func (AddRemote) mutationTag()        {}

type RemoveRemote struct {
	LogicalPath LogicalPath
	Tag         Tag
}

func (m RemoveRemote) Path() LogicalPath { return m.LogicalPath }
func (RemoveRemote) mutationTag()        {}

// CreateRemoteTag names a tag to be created server-side. It carries no
// LogicalPath of its own. The diff never emits it: the orchestrator
// creates missing tags on demand, through its tag-creation fence, while
// applying AddRemote.
type CreateRemoteTag struct {
	Tag Tag
}

func (m CreateRemoteTag) Path() LogicalPath { return "" }
func (CreateRemoteTag) mutationTag()        {}

func (m AddLocal) String() string        { return fmt.Sprintf("+local  %s %q", m.LogicalPath, m.Tag) }
func (m RemoveLocal) String() string     { return fmt.Sprintf("-local  %s %q", m.LogicalPath, m.Tag) }
func (m AddRemote) String() string       { return fmt.Sprintf("+remote %s %q", m.LogicalPath, m.Tag) }
func (m RemoveRemote) String() string    { return fmt.Sprintf("-remote %s %q", m.LogicalPath, m.Tag) }
func (m CreateRemoteTag) String() string { return fmt.Sprintf("create-tag %q", m.Tag) }
