//go:build windows

package diskspace

import "golang.org/x/sys/windows"

func platformStat(path string) (Usage, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return Usage{}, err
	}
	var free, total, totalFree uint64
	if err := windows.GetDiskFreeSpaceEx(p, &free, &total, &totalFree); err != nil {
		return Usage{}, err
	}
	// no stable volume identifier here; sameFilesystem falls back to the
	// capacity heuristic
	return Usage{Total: total, Available: free}, nil
}
