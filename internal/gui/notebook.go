package gui

import (
	"strings"

	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/data/binding"
	"fyne.io/fyne/v2/widget"
)

// ToolsTab is the title of the command tab holding the tools notebook.
const ToolsTab = "Tools"

// CommandNotebook holds one tab per command, plus a tools tab that nests a
// second notebook of tool commands.
type CommandNotebook struct {
	tabs     *container.AppTabs
	tools    *container.AppTabs
	modified map[string]binding.Bool
}

func NewCommandNotebook(commands, tools []string) *CommandNotebook {
	nb := &CommandNotebook{
		tabs:     container.NewAppTabs(),
		tools:    container.NewAppTabs(),
		modified: make(map[string]binding.Bool),
	}
	for _, command := range commands {
		nb.tabs.Append(container.NewTabItem(command, commandPage(command)))
		nb.modified[strings.ToLower(command)] = binding.NewBool()
	}
	for _, tool := range tools {
		nb.tools.Append(container.NewTabItem(tool, commandPage(tool)))
		nb.modified[strings.ToLower(tool)] = binding.NewBool()
	}
	if len(tools) > 0 {
		nb.tabs.Append(container.NewTabItem(ToolsTab, nb.tools))
	}
	return nb
}

func commandPage(command string) *widget.Label {
	return widget.NewLabel(command + " options")
}

// AppTabs is the widget to place in the window.
func (nb *CommandNotebook) AppTabs() *container.AppTabs {
	return nb.tabs
}

// TabNames maps each lower-cased command tab title to its index.
func (nb *CommandNotebook) TabNames() map[string]int {
	return tabNames(nb.tabs)
}

func (nb *CommandNotebook) ToolsTabNames() map[string]int {
	return tabNames(nb.tools)
}

func tabNames(tabs *container.AppTabs) map[string]int {
	names := make(map[string]int, len(tabs.Items))
	for i, item := range tabs.Items {
		names[strings.ToLower(item.Text)] = i
	}
	return names
}

func (nb *CommandNotebook) Select(id int) {
	if id >= 0 && id < len(nb.tabs.Items) {
		nb.tabs.SelectIndex(id)
	}
}

func (nb *CommandNotebook) SelectTools(id int) {
	if id >= 0 && id < len(nb.tools.Items) {
		nb.tools.SelectIndex(id)
	}
}

// Selected returns the titles of the selected command and tools tabs.
func (nb *CommandNotebook) Selected() (string, string) {
	var command, tool string
	if item := nb.tabs.Selected(); item != nil {
		command = item.Text
	}
	if item := nb.tools.Selected(); item != nil {
		tool = item.Text
	}
	return command, tool
}

func (nb *CommandNotebook) ModifiedVars() map[string]binding.Bool {
	return nb.modified
}
