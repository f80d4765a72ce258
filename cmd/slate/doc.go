// Command slate is the pipeline path tool: it renders and parses
// template paths, lists work files and outputs, resolves next versions
// and manages the tracker mirror for a project.
package main
