package fsx

// SetRenameFunc replaces the rename implementation until the returned func is called
func SetRenameFunc(f func(src, dst string) error) func() {
	prev := renameFunc
	renameFunc = f
	return func() { renameFunc = prev }
}
