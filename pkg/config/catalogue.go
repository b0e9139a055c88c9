package config

var defaultExcludes = []string{
	"*.swp",
	"*.swx",
	"*~",
	"*.tmp",
}

// defaultCategories is the built-in source list per category. The generic
// category is derived from the union of these.
var defaultCategories = map[string][]string{
	"network": {
		"/etc/hosts",
		"/etc/hostname",
		"/etc/resolv.conf",
		"/etc/nsswitch.conf",
		"/etc/network",
		"/etc/netplan",
		"/etc/NetworkManager/system-connections",
		"/etc/sysconfig/network-scripts",
	},
	"firewall": {
		"/etc/iptables",
		"/etc/sysconfig/iptables",
		"/etc/sysconfig/ip6tables",
		"/etc/nftables.conf",
		"/etc/ufw",
		"/etc/firewalld",
	},
	"services": {
		"/etc/systemd/system",
		"/etc/init.d",
		"/etc/crontab",
		"/etc/cron.d",
		"/var/spool/cron",
	},
	"users": {
		"/etc/passwd",
		"/etc/group",
		"/etc/shadow",
		"/etc/gshadow",
		"/etc/sudoers",
		"/etc/sudoers.d",
		"/etc/pam.d",
	},
	"ssh": {
		"/etc/ssh",
		"/root/.ssh",
	},
	"web": {
		"/etc/apache2",
		"/etc/httpd",
		"/etc/nginx",
		"/var/www",
	},
	"dns": {
		"/etc/bind",
		"/etc/named.conf",
		"/etc/unbound",
	},
}
