package rsbuild

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/rivo/tview"
)

type logInfo struct {
	path    string
	content string
	modTime time.Time
	live    bool // still plain-text, i.e. a build may be writing to it
}

var (
	tuiApp         *tview.Application
	tuiLogs        []logInfo
	tuiActiveIdx   int
	tuiPrevIdx     int // Track previous index to detect tab switches
	tuiHeaderBox   *tview.TextView
	tuiLogView     *tview.TextView
	tuiFooterBox   *tview.TextView
	tuiFlex        *tview.Flex
	tuiUpdateChan  chan []logInfo
	tuiPrevContent map[string]string // Track previous content per log path
)

// readAllBuildLogs collects retained build logs, newest first. Compressed
// logs are decompressed for display; a plain .log file belongs to a build
// that is (or was) still running and is treated as live.
func readAllBuildLogs() []logInfo {
	entries, err := os.ReadDir(LogDir)
	if err != nil {
		return nil
	}

	var logs []logInfo
	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasPrefix(name, "build-") {
			continue
		}

		path := filepath.Join(LogDir, name)
		info, err := entry.Info()
		if err != nil {
			continue
		}

		var content string
		var live bool
		switch {
		case strings.HasSuffix(name, ".log.zst"):
			content, err = readZstLog(path)
			if err != nil {
				content = fmt.Sprintf("failed to decompress %s: %v", name, err)
			}
		case strings.HasSuffix(name, ".log"):
			data, err := os.ReadFile(path)
			if err != nil {
				continue
			}
			content = string(data)
			live = true
		default:
			continue
		}

		logs = append(logs, logInfo{path: path, content: content, modTime: info.ModTime(), live: live})
	}

	sort.Slice(logs, func(i, j int) bool {
		return logs[i].modTime.After(logs[j].modTime)
	})
	return logs
}

func readZstLog(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	zr, err := zstd.NewReader(f)
	if err != nil {
		return "", err
	}
	defer zr.Close()

	data, err := io.ReadAll(zr)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func runLogViewer() int {
	tuiUpdateChan = make(chan []logInfo, 10)
	tuiPrevContent = make(map[string]string)
	tuiPrevIdx = -1

	tuiApp = tview.NewApplication()

	tuiHeaderBox = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetTextAlign(tview.AlignLeft)
	tuiHeaderBox.SetBorder(true)
	tuiHeaderBox.SetTitle("rsbuild Build Log Viewer")

	// SetDynamicColors(true) enables ANSI color code support
	tuiLogView = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetScrollable(true).
		SetChangedFunc(func() {
			tuiApp.Draw()
		})
	tuiLogView.SetBorder(true)

	tuiFooterBox = tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetTextAlign(tview.AlignLeft)
	tuiFooterBox.SetBorder(true)

	tuiFlex = tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(tuiHeaderBox, 3, 0, false).
		AddItem(tuiLogView, 0, 1, true).
		AddItem(tuiFooterBox, 4, 0, false)

	tuiFlex.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		key := event.Key()
		r := event.Rune()

		switch key {
		case tcell.KeyCtrlQ, tcell.KeyEsc:
			tuiApp.Stop()
			return nil
		case tcell.KeyLeft:
			switchLog(-1)
			return nil
		case tcell.KeyRight:
			switchLog(1)
			return nil
		case tcell.KeyHome:
			tuiLogView.ScrollToBeginning()
			return nil
		case tcell.KeyEnd:
			tuiLogView.ScrollToEnd()
			return nil
		case tcell.KeyUp:
			row, _ := tuiLogView.GetScrollOffset()
			if row > 0 {
				tuiLogView.ScrollTo(row-1, 0)
			}
			return nil
		case tcell.KeyDown:
			row, _ := tuiLogView.GetScrollOffset()
			tuiLogView.ScrollTo(row+1, 0)
			return nil
		case tcell.KeyPgUp:
			row, _ := tuiLogView.GetScrollOffset()
			if row > 10 {
				tuiLogView.ScrollTo(row-10, 0)
			} else {
				tuiLogView.ScrollToBeginning()
			}
			return nil
		case tcell.KeyPgDn:
			row, _ := tuiLogView.GetScrollOffset()
			tuiLogView.ScrollTo(row+10, 0)
			return nil
		case tcell.KeyRune:
			switch r {
			case 'q':
				tuiApp.Stop()
				return nil
			case 'd':
				if tuiActiveIdx < len(tuiLogs) && !tuiLogs[tuiActiveIdx].live {
					os.Remove(tuiLogs[tuiActiveIdx].path)
					go func() {
						tuiUpdateChan <- readAllBuildLogs()
					}()
				}
				return nil
			case 'h':
				switchLog(-1)
				return nil
			case 'l':
				switchLog(1)
				return nil
			}
		}
		return event
	})

	// Poll for new/updated logs so a running build streams into the viewer.
	go func() {
		ticker := time.NewTicker(400 * time.Millisecond)
		defer ticker.Stop()
		for range ticker.C {
			logs := readAllBuildLogs()
			select {
			case tuiUpdateChan <- logs:
			default:
			}
		}
	}()

	go func() {
		for logs := range tuiUpdateChan {
			var currentLogPath string
			if tuiActiveIdx < len(tuiLogs) {
				currentLogPath = tuiLogs[tuiActiveIdx].path
			}

			tuiLogs = logs

			// Try to maintain focus on the same log file
			if currentLogPath != "" {
				found := false
				for i, l := range tuiLogs {
					if l.path == currentLogPath {
						tuiActiveIdx = i
						found = true
						break
					}
				}
				if !found && tuiActiveIdx >= len(tuiLogs) && len(tuiLogs) > 0 {
					tuiActiveIdx = len(tuiLogs) - 1
				}
			}

			tuiApp.QueueUpdateDraw(func() {
				updateTUI()
			})
		}
	}()

	tuiApp.SetRoot(tuiFlex, true).SetFocus(tuiLogView)

	tuiLogs = readAllBuildLogs()
	if len(tuiLogs) > 0 {
		tuiActiveIdx = 0
	}
	updateTUI()

	if err := tuiApp.Run(); err != nil {
		fmt.Fprintln(os.Stderr, "tui:", err)
		return 1
	}
	return 0
}

func switchLog(dir int) {
	if len(tuiLogs) == 0 {
		return
	}
	tuiActiveIdx += dir
	if tuiActiveIdx < 0 {
		tuiActiveIdx = len(tuiLogs) - 1
	}
	if tuiActiveIdx >= len(tuiLogs) {
		tuiActiveIdx = 0
	}
	updateTUI()
}

func updateTUI() {
	if tuiApp == nil || tuiHeaderBox == nil || tuiLogView == nil || tuiFooterBox == nil {
		return
	}

	// Update header
	var headerText strings.Builder
	if len(tuiLogs) == 0 {
		headerText.WriteString("[gray]No build logs found[white]")
	} else if tuiActiveIdx < len(tuiLogs) {
		l := tuiLogs[tuiActiveIdx]
		state := "done"
		if l.live {
			state = "running"
		}
		headerText.WriteString(fmt.Sprintf("[gray]Build Log %d/%d (%s): %s[white]",
			tuiActiveIdx+1, len(tuiLogs), state, l.path))
	} else {
		headerText.WriteString("[gray]No active log[white]")
	}
	tuiHeaderBox.SetText(headerText.String())

	// Update log content
	if len(tuiLogs) == 0 {
		tuiLogView.SetText("No build log yet. Run 'rsbuild' to start a build.")
	} else if tuiActiveIdx < len(tuiLogs) {
		l := tuiLogs[tuiActiveIdx]
		switchedTabs := tuiPrevIdx != tuiActiveIdx
		if switchedTabs {
			tuiPrevIdx = tuiActiveIdx
		}

		if l.content != tuiPrevContent[l.path] || switchedTabs {
			tuiLogView.SetText(tview.TranslateANSI(l.content))
			tuiPrevContent[l.path] = l.content
			if l.live || switchedTabs {
				tuiLogView.ScrollToEnd()
			}
		}
	}

	tuiFooterBox.SetText("[yellow]←/→[white] switch log  [yellow]↑/↓ PgUp/PgDn Home/End[white] scroll  [yellow]d[white] delete  [yellow]q/Esc[white] quit")
}
