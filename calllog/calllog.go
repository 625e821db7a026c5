package calllog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"TCAGo/global"
	"TCAGo/guid"
)

var (
	pipe         = make(chan map[Field]string, global.CallLogBufferSize)
	fields       = getAllFields()
	stringfields = CastStringSlice(fields)
)

const LogFilename string = "calllog_current.txt"

const timestampFormat string = "2006-01-02T15.04.05"

// Start opens the call-record file under dir and launches the writer.
// A leftover file from a previous run is renamed aside first.
func Start(dir string) {
	global.WtGrp.Add(1)
	if file, ok := prepareLogFile(dir); ok {
		go writeRecords(file)
	} else {
		global.WtGrp.Done()
	}
}

func prepareLogFile(dir string) (*os.File, bool) {
	filename := filepath.Join(dir, LogFilename)
	if info, err := os.Stat(filename); err == nil {
		modtm := info.ModTime().UTC().Format(timestampFormat)
		err = os.Rename(filename, strings.Replace(filename, "current", modtm, 1))
		if err != nil {
			global.LogError(global.LTCallLog, fmt.Sprint("Error renaming existing call-record file:", err))
			return nil, false
		}
	}

	file, err := os.OpenFile(filename, os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		global.LogWarning(global.LTCallLog, fmt.Sprint("Error opening call-record file:", err))
		return nil, false
	}

	return file, true
}

func writeRecords(file *os.File) {
	defer global.WtGrp.Done()
	defer file.Close()
	defer file.Sync()

	writeLine := func(line string) {
		if _, err := fmt.Fprintln(file, line); err != nil {
			fmt.Println("Error writing to file:", err)
		}
	}

	// write headers
	writeLine(strings.Join(stringfields, ";"))

	// write records
	for fieldsmap := range pipe {
		fieldsmap[RecordID] = guid.NewRecordID()
		var sb strings.Builder
		for _, f := range fields {
			sb.WriteString(fieldsmap[f])
			sb.WriteString(";")
		}
		writeLine(sb.String()[:sb.Len()-1])
	}
}
