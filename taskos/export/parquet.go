// Package export writes per-task accounting snapshots as Parquet.
package export

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/parquet-go/parquet-go"

	"rcos/taskos/kernel"
	"rcos/taskos/proto"
)

// Row is one task's accounting at the time of the snapshot.
type Row struct {
	BootID   string `parquet:"boot_id"`
	TaskID   int32  `parquet:"task_id"`
	Name     string `parquet:"name"`
	Status   string `parquet:"status"`
	TimeMs   int64  `parquet:"time_ms"`
	ExitCode int32  `parquet:"exit_code"`

	Write    int64 `parquet:"sys_write"`
	Exit     int64 `parquet:"sys_exit"`
	Yield    int64 `parquet:"sys_yield"`
	GetTime  int64 `parquet:"sys_get_time"`
	TaskInfo int64 `parquet:"sys_task_info"`
	// Total counts every syscall index, including ones without a column.
	Total int64 `parquet:"sys_total"`
}

// Rows flattens kernel snapshots into export rows.
func Rows(bootID string, snaps []kernel.TaskSnapshot) []Row {
	rows := make([]Row, 0, len(snaps))
	for _, s := range snaps {
		var total int64
		for _, n := range s.Syscalls {
			total += int64(n)
		}
		rows = append(rows, Row{
			BootID:   bootID,
			TaskID:   int32(s.ID),
			Name:     s.Name,
			Status:   s.Status.String(),
			TimeMs:   int64(s.TimeMs),
			ExitCode: s.ExitCode,
			Write:    int64(s.Syscalls[proto.SysWrite]),
			Exit:     int64(s.Syscalls[proto.SysExit]),
			Yield:    int64(s.Syscalls[proto.SysYield]),
			GetTime:  int64(s.Syscalls[proto.SysGetTime]),
			TaskInfo: int64(s.Syscalls[proto.SysTaskInfo]),
			Total:    total,
		})
	}
	return rows
}

// Write encodes rows as a single Parquet file on w.
func Write(w io.Writer, rows []Row) error {
	pw := parquet.NewGenericWriter[Row](w)
	if len(rows) > 0 {
		if _, err := pw.Write(rows); err != nil {
			pw.Close()
			return fmt.Errorf("failed to write rows: %w", err)
		}
	}
	if err := pw.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

// WriteFile writes rows to path, replacing any existing file.
func WriteFile(path string, rows []Row) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	if err := Write(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read decodes every row of a Parquet file produced by Write.
func Read(r io.ReaderAt, size int64) ([]Row, error) {
	rows, err := parquet.Read[Row](r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to read parquet: %w", err)
	}
	return rows, nil
}

// ReadFile reads the rows stored at path.
func ReadFile(path string) ([]Row, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return Read(bytes.NewReader(data), int64(len(data)))
}
