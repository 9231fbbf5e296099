//go:build unix

package diskspace

import "golang.org/x/sys/unix"

func platformStat(path string) (Usage, error) {
	var fs unix.Statfs_t
	if err := unix.Statfs(path, &fs); err != nil {
		return Usage{}, err
	}
	usage := Usage{
		Total:     fs.Blocks * uint64(fs.Bsize),
		Available: fs.Bavail * uint64(fs.Bsize),
	}
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err == nil {
		usage.Device = uint64(st.Dev)
		usage.HasDevice = true
	}
	return usage, nil
}
