package catbox

// Numeric reply codes used by the command handlers (§6).
const (
	RplWelcome          = "001"
	RplYourHost         = "002"
	RplCreated          = "003"
	RplMyInfo           = "004"
	RplISupport         = "005"
	RplUserHost         = "302"
	RplAway             = "301"
	RplUnAway           = "305"
	RplNowAway          = "306"
	RplWhoisUser        = "311"
	RplWhoisServer      = "312"
	RplWhoisOperator    = "313"
	RplWhoisIdle        = "317"
	RplEndOfWhois       = "318"
	RplWhoisChannels    = "319"
	RplWhoisAccount     = "330"
	RplNoTopic          = "331"
	RplTopic            = "332"
	RplTopicWhoTime     = "333"
	RplInviting         = "341"
	RplVersion          = "351"
	RplWhoReply         = "352"
	RplNamReply         = "353"
	RplLinks            = "364"
	RplEndOfLinks       = "365"
	RplEndOfNames       = "366"
	RplBanList          = "367"
	RplEndOfBanList     = "368"
	RplExceptList       = "348"
	RplEndOfExceptList  = "349"
	RplInviteList       = "346"
	RplEndOfInviteList  = "347"
	RplWhoWasUser       = "314"
	RplEndOfWhoWas      = "369"
	RplInfo             = "371"
	RplMotd             = "372"
	RplEndOfInfo        = "374"
	RplMotdStart        = "375"
	RplEndOfMotd        = "376"
	RplYoureOper        = "381"
	RplRehashing        = "382"
	RplTime             = "391"
	RplAdminMe          = "256"
	RplAdminLoc1        = "257"
	RplAdminLoc2        = "258"
	RplAdminEmail       = "259"
	RplLUserClient      = "251"
	RplLUserOp          = "252"
	RplLUserUnknown     = "253"
	RplLUserChannels    = "254"
	RplLUserMe          = "255"
	RplLUserConns       = "250"
	RplList             = "322"
	RplListEnd          = "323"
	RplChannelModeIs    = "324"
	RplNoUsers          = "302"
	RplUModeIs          = "221"
	RplStatsUptime      = "242"
	RplEndOfStats       = "219"
	RplTraceEnd         = "262"
	RplServlistEnd      = "235"
	RplSilelist         = "271"
	RplEndOfSilence     = "272"

	ErrNoSuchNick       = "401"
	ErrNoSuchServer     = "402"
	ErrNoSuchChannel    = "403"
	ErrCannotSendToChan = "404"
	ErrTooManyChannels  = "405"
	ErrWasNoSuchNick    = "406"
	ErrNoOrigin         = "409"
	ErrNoRecipient      = "411"
	ErrNoTextToSend     = "412"
	ErrUnknownCommand   = "421"
	ErrNoMotd           = "422"
	ErrNoNicknameGiven  = "431"
	ErrErroneusNickname = "432"
	ErrNicknameInUse    = "433"
	ErrUserNotInChannel = "441"
	ErrNotOnChannel     = "442"
	ErrUserOnChannel    = "443"
	ErrNotRegistered    = "451"
	ErrNeedMoreParams   = "461"
	ErrAlreadyRegistred = "462"
	ErrPasswdMismatch   = "464"
	ErrSummonDisabled   = "445"
	ErrYouReBannedCreep = "465"
	ErrKeySet           = "467"
	ErrChannelIsFull    = "471"
	ErrUnknownMode      = "472"
	ErrInviteOnlyChan   = "473"
	ErrBannedFromChan   = "474"
	ErrBadChannelKey    = "475"
	ErrNoPrivileges     = "481"
	ErrChanOpPrivsNeeded = "482"
	ErrUModeUnknownFlag = "501"
	ErrUsersDontMatch   = "502"
)
