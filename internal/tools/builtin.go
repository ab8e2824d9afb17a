package tools

// RegisterBuiltinTools queues every built-in tool on b. The order here is the
// order tools are offered to the model.
func RegisterBuiltinTools(b *Builder) *Builder {
	return b.
		Register("list_files", NewListFilesTool).
		Register("read_file", NewFileReadTool).
		Register("write_file", NewFileCreationTool).
		Register("edit_file", NewFileEditTool).
		Register("glob_tool", NewGlobTool).
		Register("grep_tool", NewGrepTool).
		Register("bash_tool", NewShellTool).
		Register("current_time", NewCurrentTimeTool)
}

// NewDefaultRegistry builds a registry holding the built-in tools.
func NewDefaultRegistry(deps Deps) *Registry {
	return RegisterBuiltinTools(NewBuilder(deps)).Build()
}
