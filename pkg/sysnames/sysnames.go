// Package sysnames maps between syscall names and x86_64 syscall numbers.
//
// The table covers the syscalls worth latency-tracing on a storage or
// network workload; it is not the full architecture table.
package sysnames

import (
	"fmt"
	"sort"
	"strings"
)

var numbers = map[string]uint32{
	"read":        0,
	"write":       1,
	"open":        2,
	"close":       3,
	"stat":        4,
	"fstat":       5,
	"lstat":       6,
	"poll":        7,
	"lseek":       8,
	"mmap":        9,
	"mprotect":    10,
	"munmap":      11,
	"brk":         12,
	"pread64":     17,
	"pwrite64":    18,
	"readv":       19,
	"writev":      20,
	"access":      21,
	"pipe":        22,
	"select":      23,
	"dup":         32,
	"dup2":        33,
	"nanosleep":   35,
	"socket":      41,
	"connect":     42,
	"accept":      43,
	"sendto":      44,
	"recvfrom":    45,
	"sendmsg":     46,
	"recvmsg":     47,
	"shutdown":    48,
	"bind":        49,
	"listen":      50,
	"clone":       56,
	"fork":        57,
	"vfork":       58,
	"execve":      59,
	"exit":        60,
	"wait4":       61,
	"kill":        62,
	"fcntl":       72,
	"flock":       73,
	"fsync":       74,
	"fdatasync":   75,
	"truncate":    76,
	"ftruncate":   77,
	"getdents":    78,
	"getcwd":      79,
	"chdir":       80,
	"rename":      82,
	"mkdir":       83,
	"rmdir":       84,
	"creat":       85,
	"link":        86,
	"unlink":      87,
	"symlink":     88,
	"readlink":    89,
	"chmod":       90,
	"fchmod":      91,
	"chown":       92,
	"fchown":      93,
	"lchown":      94,
	"umask":       95,
	"sync":        162,
	"futex":       202,
	"epoll_wait":  232,
	"openat":      257,
	"mkdirat":     258,
	"fstatat":     262,
	"unlinkat":    263,
	"renameat":    264,
	"faccessat":   269,
	"splice":      275,
	"epoll_pwait": 281,
	"fallocate":   285,
	"accept4":     288,
	"recvmmsg":    299,
	"syncfs":      306,
	"sendmmsg":    307,
}

var names = func() map[uint32]string {
	m := make(map[uint32]string, len(numbers))
	for name, num := range numbers {
		m[num] = name
	}
	return m
}()

// Number returns the syscall number for a name.
func Number(name string) (uint32, bool) {
	num, ok := numbers[name]
	return num, ok
}

// Name returns the name for a syscall number, or "sys_<n>" if the
// number is outside the table.
func Name(num uint32) string {
	if name, ok := names[num]; ok {
		return name
	}
	return fmt.Sprintf("sys_%d", num)
}

// ParseList converts a comma-separated list of syscall names into
// numbers. Unknown names are reported, not skipped.
func ParseList(list string) ([]uint32, error) {
	var nums []uint32
	for _, name := range strings.Split(list, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		num, ok := Number(name)
		if !ok {
			return nil, fmt.Errorf("unknown syscall: %s", name)
		}
		nums = append(nums, num)
	}
	return nums, nil
}

// All returns every known syscall name, sorted.
func All() []string {
	all := make([]string, 0, len(numbers))
	for name := range numbers {
		all = append(all, name)
	}
	sort.Strings(all)
	return all
}
