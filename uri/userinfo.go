package uri

import (
	"github.com/ghettovoice/sipgrammar/internal/grammar"
	"github.com/ghettovoice/sipgrammar/internal/util"
)

// UserInfo is a container for user credentials.
// The zero value means no userinfo part.
type UserInfo struct {
	usrname, passwd string
	hasPasswd       bool
}

// User returns a [UserInfo] containing the provided username and no password.
func User(usrname string) UserInfo {
	return UserInfo{usrname: usrname}
}

// UserPassword returns a [UserInfo] containing the provided username and password.
func UserPassword(usrname, passwd string) UserInfo {
	return UserInfo{usrname: usrname, passwd: passwd, hasPasswd: true}
}

// Username returns the decoded username.
func (ui UserInfo) Username() string { return ui.usrname }

// Password returns the decoded password and whether it is set.
func (ui UserInfo) Password() (string, bool) { return ui.passwd, ui.hasPasswd }

// String returns user[:password] percent-encoded for the wire.
func (ui UserInfo) String() string {
	if ui.IsZero() {
		return ""
	}
	sb := util.GetStringBuilder()
	defer util.FreeStringBuilder(sb)
	sb.WriteString(grammar.Encode(ui.usrname, shouldEscapeUserChar))
	if ui.hasPasswd {
		sb.WriteByte(':')
		sb.WriteString(grammar.Encode(ui.passwd, shouldEscapePasswdChar))
	}
	return sb.String()
}

// Equal compares credentials case-sensitively.
func (ui UserInfo) Equal(val any) bool {
	var other UserInfo
	switch v := val.(type) {
	case UserInfo:
		other = v
	case *UserInfo:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return ui == other
}

// IsValid checks whether the UserInfo has a username.
func (ui UserInfo) IsValid() bool { return ui.usrname != "" }

// IsZero checks whether the UserInfo is empty.
func (ui UserInfo) IsZero() bool { return ui == UserInfo{} }
