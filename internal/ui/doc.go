// Package ui implements the interactive mixer using bubbletea's Elm architecture.
//
// The (view) [Model] owns the control loop: every [TickInterval] it measures the
// wall-clock time since the previous tick, advances the playback engine by that
// amount through the [Mixer], and polls the download queue. Nothing here blocks, so
// audio faults and download failures surface as status lines and error marks
// instead of stalls.
//
// Views:
//  1. [MainView] : sounds grouped by category with play state and volume bars
//  2. [DownloadsView] : add-sound form and the download queue with progress bars
//  3. [PresetsView] : saved mixes, loaded, renamed, re-captured or deleted in place
//  4. [HelpView] : every key binding
//
// Keyboard navigation uses vim-style bindings (j/k, h/l, space, q) with contextual
// help displayed via charmbracelet/bubbles/help.
package ui
